package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/pkg/logger"
)

const (
	exitUsage   = 1
	exitFailure = 2
)

var opts struct {
	File     string
	Rates    string
	Scheme   string
	Out      string
	Format   string
	Provider string
	Model    string
	Code     string
	Verbose  bool
}

var rootCmd = &cobra.Command{
	Use:   "billaudit",
	Short: "Hospital bill statement audit tool",
	Long:  "Parses hospital bill statements, reconciles billed amounts against scheme rate sheets and reports revenue leakage.",
}

func init() {
	// .env values fill in unset variables only; the real environment wins.
	_ = gotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.Rates, "rates", os.Getenv("RATES_SHEET_PATH"), "Path to the rate sheet workbook (or set RATES_SHEET_PATH)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger builds a console logger for CLI runs. Warnings and errors only
// unless --verbose is set, so summary output stays readable.
func newLogger() *zap.Logger {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:      level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(exitFailure)
	}
	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUsage)
	}
}
