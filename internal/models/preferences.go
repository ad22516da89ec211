package models

// ThemeMode selects the color scheme
type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

var themeSequence = []ThemeMode{ThemeSystem, ThemeLight, ThemeDark}

// Next returns the following mode in the system → light → dark cycle
func (m ThemeMode) Next() ThemeMode {
	for i, mode := range themeSequence {
		if mode == m {
			return themeSequence[(i+1)%len(themeSequence)]
		}
	}
	return ThemeSystem
}

// Preferences holds user settings. DarkMode is kept for older readers.
type Preferences struct {
	DarkMode           bool      `json:"darkMode"`
	SoundEnabled       bool      `json:"soundEnabled"`
	ThemeMode          ThemeMode `json:"themeMode,omitempty"`
	DragAndDropEnabled bool      `json:"dragAndDropEnabled"`
	TutorialSeen       bool      `json:"tutorialSeen"`
}

// DefaultPreferences returns first-run settings
func DefaultPreferences() Preferences {
	return Preferences{
		SoundEnabled:       true,
		ThemeMode:          ThemeSystem,
		DragAndDropEnabled: true,
	}
}

// Normalize derives ThemeMode from the legacy DarkMode flag when missing
// and keeps DarkMode in sync with ThemeMode.
func (p *Preferences) Normalize() {
	switch p.ThemeMode {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		if p.DarkMode {
			p.ThemeMode = ThemeDark
		} else {
			p.ThemeMode = ThemeLight
		}
	}
	p.DarkMode = p.ThemeMode == ThemeDark
}
