package models

import "time"

// Complexity is the structural difficulty bucket of a solved equation
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityAdvanced Complexity = "advanced"
)

// Complexities lists every level from lowest to highest
var Complexities = []Complexity{
	ComplexityTrivial,
	ComplexitySimple,
	ComplexityModerate,
	ComplexityComplex,
	ComplexityAdvanced,
}

// Valid reports whether c is one of the known levels
func (c Complexity) Valid() bool {
	for _, known := range Complexities {
		if c == known {
			return true
		}
	}
	return false
}

// ValidationResult is the outcome of checking a finished equation
type ValidationResult struct {
	IsValid               bool       `json:"isValid"`
	UsesAllDigits         bool       `json:"usesAllDigits"`
	DigitsInOrder         bool       `json:"digitsInOrder"`
	MathematicallyCorrect bool       `json:"mathematicallyCorrect"`
	Complexity            Complexity `json:"complexity"`
	Error                 string     `json:"error,omitempty"`

	// Kind classifies a failed result; nil when IsValid
	Kind error `json:"-"`
}

// Err returns nil for a valid result, otherwise a *GameError carrying Kind
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	kind := r.Kind
	if kind == nil {
		kind = ErrIncompleteEquation
	}
	return &GameError{Kind: kind, Message: r.Error}
}

// Solution is an accepted equation. Immutable once appended to a DayState.
type Solution struct {
	ID            string     `json:"id,omitempty"`
	Equation      string     `json:"equation"`
	Score         int        `json:"score"`
	Complexity    Complexity `json:"complexity"`
	Timestamp     time.Time  `json:"timestamp"`
	TimeToSolve   *int64     `json:"timeToSolve,omitempty"` // milliseconds
	WrongAttempts *int       `json:"wrongAttempts,omitempty"`
}

// DayState is the persisted record of one puzzle date
type DayState struct {
	Equation      string     `json:"equation"`
	Solutions     []Solution `json:"solutions"`
	IsValid       bool       `json:"isValid"`
	Completed     bool       `json:"completed"`
	HintsUsed     int        `json:"hintsUsed"`
	WrongAttempts int        `json:"wrongAttempts,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
}

// Normalize fills defaults so records written by older versions stay usable
func (d *DayState) Normalize() {
	if d.Solutions == nil {
		d.Solutions = []Solution{}
	}
	for i := range d.Solutions {
		if !d.Solutions[i].Complexity.Valid() {
			d.Solutions[i].Complexity = ComplexitySimple
		}
	}
	if d.HintsUsed < 0 {
		d.HintsUsed = 0
	}
	if d.WrongAttempts < 0 {
		d.WrongAttempts = 0
	}
	d.Completed = d.Completed || len(d.Solutions) > 0
}

// BestScore returns the highest solution score of the day, or 0
func (d *DayState) BestScore() int {
	best := 0
	for _, s := range d.Solutions {
		if s.Score > best {
			best = s.Score
		}
	}
	return best
}

// TotalScore sums every solution score of the day
func (d *DayState) TotalScore() int {
	total := 0
	for _, s := range d.Solutions {
		total += s.Score
	}
	return total
}

// Clone returns a deep copy
func (d *DayState) Clone() *DayState {
	if d == nil {
		return nil
	}
	c := *d
	c.Solutions = append([]Solution(nil), d.Solutions...)
	if d.StartedAt != nil {
		t := *d.StartedAt
		c.StartedAt = &t
	}
	return &c
}

// GameDataVersion is the schema version written by this build
const GameDataVersion = 2

// GameData is the day-keyed history record
type GameData struct {
	Version          int                  `json:"version"`
	LastSelectedDate string               `json:"lastSelectedDate"`
	History          map[string]*DayState `json:"history"`
}

// NewGameData returns an empty current-version record
func NewGameData() *GameData {
	return &GameData{Version: GameDataVersion, History: map[string]*DayState{}}
}

// Normalize fills missing maps and per-day defaults
func (g *GameData) Normalize() {
	g.Version = GameDataVersion
	if g.History == nil {
		g.History = map[string]*DayState{}
	}
	for date, day := range g.History {
		if day == nil {
			delete(g.History, date)
			continue
		}
		day.Normalize()
	}
}

// Day returns the state for date, creating it lazily
func (g *GameData) Day(date string) *DayState {
	if g.History == nil {
		g.History = map[string]*DayState{}
	}
	day, ok := g.History[date]
	if !ok {
		day = &DayState{Solutions: []Solution{}}
		g.History[date] = day
	}
	return day
}

// Clone returns a deep copy
func (g *GameData) Clone() *GameData {
	c := &GameData{Version: g.Version, LastSelectedDate: g.LastSelectedDate, History: make(map[string]*DayState, len(g.History))}
	for date, day := range g.History {
		c.History[date] = day.Clone()
	}
	return c
}
