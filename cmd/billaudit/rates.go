package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/audit"
	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/rates"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Inspect the loaded rate sheet",
	Long:  "Prints per-scheme code counts, or resolves a single service code when --code is given.",
	RunE:  runRates,
}

func init() {
	f := ratesCmd.Flags()
	f.StringVar(&opts.Scheme, "scheme", "", "Rate scheme to inspect: STANDARD or CGHS")
	f.StringVar(&opts.Code, "code", "", "Service code to look up")
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, args []string) error {
	log := newLogger()

	if opts.Rates == "" {
		log.Error("Missing --rates path")
		os.Exit(exitUsage)
	}

	table := rates.NewLoader(log).Load(opts.Rates)

	if opts.Code == "" {
		if opts.Scheme != "" {
			scheme, err := models.ParseScheme(opts.Scheme)
			if err != nil {
				log.Error("Invalid --scheme value", zap.Error(err))
				os.Exit(exitUsage)
			}
			fmt.Printf("%s: %d codes\n", scheme, table.Count(scheme))
			return nil
		}
		fmt.Printf("%s: %d codes\n", models.SchemeStandard, table.Count(models.SchemeStandard))
		fmt.Printf("%s: %d codes\n", models.SchemeCGHS, table.Count(models.SchemeCGHS))
		return nil
	}

	scheme := models.SchemeStandard
	if opts.Scheme != "" {
		parsed, err := models.ParseScheme(opts.Scheme)
		if err != nil {
			log.Error("Invalid --scheme value", zap.Error(err))
			os.Exit(exitUsage)
		}
		scheme = parsed
	}

	canonical, entry, ok := table.Lookup(scheme, opts.Code)
	if !ok {
		fmt.Printf("Service code %s not found in %s rate sheet\n", opts.Code, scheme)
		os.Exit(exitFailure)
	}

	fmt.Printf("Scheme:  %s\n", scheme)
	fmt.Printf("Code:    %s\n", canonical)
	fmt.Printf("Service: %s\n", entry.ServiceName)
	fmt.Printf("Rate:    %s\n", audit.FormatMoney(entry.Rate))
	return nil
}
