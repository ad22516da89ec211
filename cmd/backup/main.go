package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crackledate/internal/config"
	"crackledate/internal/history"
	"crackledate/internal/logging"
	"crackledate/internal/security"
	"crackledate/internal/service"
	"crackledate/internal/storage"
)

var (
	outputPath string
	inputPath  string
	passphrase string
	dryRun     bool
	assumeYes  bool

	rootCmd = &cobra.Command{
		Use:   "backup",
		Short: "Crackle Date backup tool",
		Long: `Export, import and reset the stored game records.

The store is selected with the same environment variables as the server:
STORE_BACKEND (sql, redis, badger or memory), STORE_PREFIX, DATABASE_TYPE,
DB_PATH, DATABASE_URL, REDIS_ADDR and BADGER_PATH.`,
		SilenceUsage: true,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export stats, history and preferences to a JSON bundle",
		Example: `  backup export
  backup export --output mybackup.json
  backup export --output mybackup.sealed --passphrase "correct horse"`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Replace stored records with a bundle",
		Example: `  backup import --input backup.json
  backup import --input backup.json --dry-run`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate a bundle without importing it",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Delete stats and history (preferences are kept)",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
)

func init() {
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default: crackle-date-backup_YYYYMMDD_HHMMSS.json)")
	exportCmd.Flags().StringVar(&passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "seal the bundle with this passphrase")

	importCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file path (required)")
	importCmd.Flags().StringVar(&passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "passphrase for a sealed bundle")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the bundle and report what would be imported")
	importCmd.MarkFlagRequired("input")

	checkCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file path (required)")
	checkCmd.Flags().StringVar(&passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "passphrase for a sealed bundle")
	checkCmd.MarkFlagRequired("input")

	resetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(exportCmd, importCmd, checkCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects to the configured store
func openStore(ctx context.Context) (*history.Store, func(), *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	kv, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	closeFn := func() {
		if err := kv.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
	return history.NewStore(kv, cfg.StorePrefix, logger), closeFn, logger, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, closeFn, logger, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("crackle-date-backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	records, err := store.Records(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No stored records, exporting defaults")
	}

	var buf bytes.Buffer
	if err := service.NewBackupService(store, logger).ExportToWriter(ctx, &buf); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	data, err := sealIfRequested(buf.Bytes(), passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%.1f KB, sealed: %t)\n",
		strings.Join(records, ", "), outputPath, float64(len(data))/1024, passphrase != "")
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	bundle, err := readBundle(inputPath, passphrase)
	if err != nil {
		return err
	}

	store, closeFn, logger, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	backup := service.NewBackupService(store, logger)
	var summary *service.ImportSummary
	if dryRun {
		summary, err = backup.Check(bytes.NewReader(bundle))
	} else {
		summary, err = backup.ImportFromReader(ctx, bytes.NewReader(bundle))
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	printSummary(cmd.OutOrStdout(), verb, summary)
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	bundle, err := readBundle(inputPath, passphrase)
	if err != nil {
		return err
	}

	summary, err := service.NewBackupService(nil, nil).Check(bytes.NewReader(bundle))
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), "Valid bundle:", summary)
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
		"WARNING: This will delete all stats and history. Type 'yes' to confirm: ") {
		fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
		return nil
	}

	ctx := cmd.Context()
	store, closeFn, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	before, err := store.Records(ctx)
	if err != nil {
		return err
	}
	if !store.Clear(ctx) {
		return fmt.Errorf("reset failed: store unavailable")
	}
	after, err := store.Records(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stats and history cleared (removed %d records, kept: %s)\n",
		len(before)-len(after), strings.Join(after, ", "))
	return nil
}

// readBundle reads a bundle file, unsealing it when it is sealed
func readBundle(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !security.IsSealed(data) {
		return data, nil
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%s is sealed: --passphrase is required", path)
	}
	plain, err := security.Unseal(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal %s: %w", path, err)
	}
	return plain, nil
}

func sealIfRequested(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return data, nil
	}
	sealed, err := security.Seal(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to seal bundle: %w", err)
	}
	return sealed, nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

func printSummary(w io.Writer, verb string, s *service.ImportSummary) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	fmt.Fprintln(w, verb)
	enc.Encode(s)
}
