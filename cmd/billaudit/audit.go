package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/audit"
	"github.com/garyjia/billing-audit/internal/bill"
	"github.com/garyjia/billing-audit/internal/export"
	"github.com/garyjia/billing-audit/internal/extract"
	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/pdftext"
	"github.com/garyjia/billing-audit/internal/rates"
	"github.com/garyjia/billing-audit/internal/service"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit one bill statement against the rate sheet",
	RunE:  runAudit,
}

func init() {
	f := auditCmd.Flags()
	f.StringVar(&opts.File, "file", "", "Path to the bill statement (required)")
	f.StringVar(&opts.Scheme, "scheme", "", "Force the rate scheme: STANDARD or CGHS (default: detect from the bill header)")
	f.StringVar(&opts.Out, "out", "", "Directory to write the audit export into (no export when unset)")
	f.StringVar(&opts.Format, "format", "csv", "Export format: csv, json, xlsx or parquet")
	f.StringVar(&opts.Provider, "provider", os.Getenv("EXTRACT_PROVIDER"), "Header extraction provider: openai, gemini or none")
	f.StringVar(&opts.Model, "model", os.Getenv("EXTRACT_MODEL"), "Model name for the extraction provider")
	_ = auditCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := context.Background()

	scheme := models.SchemeStandard
	schemeForced := false
	if opts.Scheme != "" {
		parsed, err := models.ParseScheme(opts.Scheme)
		if err != nil {
			log.Error("Invalid --scheme value", zap.Error(err))
			os.Exit(exitUsage)
		}
		scheme = parsed
		schemeForced = true
	}

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		log.Error("Invalid --format value", zap.Error(err))
		os.Exit(exitUsage)
	}

	provider, err := extract.NewProvider(extract.Config{
		Provider: opts.Provider,
		APIKey:   providerAPIKey(opts.Provider),
		Model:    opts.Model,
	})
	if err != nil {
		log.Error("Invalid --provider value", zap.Error(err))
		os.Exit(exitUsage)
	}

	table := rates.NewLoader(log).Load(opts.Rates)

	auditor := service.NewAuditor(
		pdftext.NewReader(log),
		bill.NewParser(bill.DefaultConfig(), log),
		extract.NewExtractor(provider, log),
		audit.NewValidator(table, log),
		log,
	)

	report, err := auditor.Audit(ctx, opts.File, scheme, schemeForced)
	if err != nil {
		log.Error("Audit failed", zap.Error(err))
		os.Exit(exitFailure)
	}

	printSummary(report)

	if opts.Out != "" {
		doc := &export.Document{
			Header:     report.Header,
			Concession: report.Concession,
			Metrics:    report.Metrics,
			Leakage:    report.Leakage,
			Items:      report.Items,
		}
		base := strings.TrimSuffix(filepath.Base(opts.File), filepath.Ext(opts.File)) + " audit"
		path, err := export.NewExporter(log).RenderFile(opts.Out, format, base, doc)
		if err != nil {
			log.Error("Export failed", zap.Error(err))
			os.Exit(exitFailure)
		}
		fmt.Printf("Export written: %s\n", path)
	}

	return nil
}

// providerAPIKey picks the environment credential matching the provider,
// mirroring how the server selects its key from configuration.
func providerAPIKey(provider string) string {
	switch provider {
	case extract.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case extract.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

func printSummary(r *service.Report) {
	fmt.Println("=== bill audit ===")
	fmt.Printf("Scheme:     %s\n", r.Scheme)
	fmt.Printf("Pages:      %d\n", r.PageCount)
	if r.Header.PatientName != "" {
		fmt.Printf("Patient:    %s\n", r.Header.PatientName)
	}
	if r.Header.Company != "" {
		fmt.Printf("Company:    %s\n", r.Header.Company)
	}
	fmt.Printf("Items:      %d\n", r.Metrics.TotalItems)
	fmt.Printf("Billed:     %s\n", audit.FormatMoney(r.Leakage.TotalBilledAmount))
	fmt.Printf("Leakage:    %s\n", audit.FormatMoney(r.Leakage.TotalLeakageAmount))
	fmt.Printf("Compliance: %.1f%% (%d compliant, %d non-compliant, %d not in sheet, %d code missing)\n",
		r.Metrics.ComplianceRate*100,
		r.Metrics.CompliantCount,
		r.Metrics.NonCompliantCount,
		r.Metrics.NotInSheetCount,
		r.Metrics.CodeMissingCount)
	if t := r.Concession.TotalBillAmount; t != nil {
		fmt.Printf("Bill total: %s\n", audit.FormatMoney(*t))
	}
	if n := r.Concession.NetAmount; n != nil {
		fmt.Printf("Net amount: %s\n", audit.FormatMoney(*n))
	}
	for _, issue := range r.Leakage.PriorityIssues {
		fmt.Printf("  ! %s\n", issue)
	}
}
