package report

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ngsast/bestfix/internal/artifacts"
	"github.com/ngsast/bestfix/internal/bestfix"
	"github.com/ngsast/bestfix/internal/config"
	"github.com/ngsast/bestfix/internal/ngsast"
	"github.com/ngsast/bestfix/internal/report"
)

// RunOptionsReport holds the arguments of the report command.
type RunOptionsReport struct {
	AppName     string
	ScanVersion string
	SourceDir   string
	OutputPath  string
	CohortsPath string
	SarifPath   string
	Append      bool
	AllApps     bool
	Threads     int
	Upload      bool
}

// Global variables for configuration and command arguments
var (
	AppConfig     *config.Config
	logger        hclog.Logger
	reportOptions RunOptionsReport

	exampleReportUsage = `  # Annotate the findings of one app against a local checkout
  bestfix report --app my-app --source-dir /path/to/checkout -o bestfix-report.csv

  # Annotate the findings of a particular scan version
  bestfix report --app my-app --version b9bb2a8 --source-dir /path/to/checkout

  # Annotate every app of the organization into one CSV
  bestfix report --all-apps -o bestfix-report.csv

  # Produce a SARIF report alongside the CSV
  bestfix report --app my-app --source-dir /path/to/checkout --sarif-output bestfix.sarif`
)

// ReportCmd represents the command for the report command.
var ReportCmd = &cobra.Command{
	Use:                   "report --app/-a APP_NAME [--version VERSION] [--source-dir/-s PATH] [--output/-o PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleReportUsage,
	Short:                 "Suggest the best fix for each NG SAST finding",
	RunE:                  runReportCommand,
}

// Init initializes the global configuration and logger for the report command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

// hasFlags reports whether any flag was set on the command line.
func hasFlags(fs *pflag.FlagSet) bool {
	changed := false
	fs.Visit(func(*pflag.Flag) { changed = true })
	return changed
}

func runReportCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !hasFlags(cmd.Flags()) && config.DefaultApp() == "" {
		return cmd.Help()
	}

	if err := validateReportArgs(&reportOptions, args); err != nil {
		logger.Error("invalid report arguments", "error", err)
		return fmt.Errorf("invalid report arguments: %w", err)
	}

	token := config.AccessToken()
	orgID := ngsast.ExtractOrgID(token)
	if orgID == "" {
		return fmt.Errorf("unable to detect the organization id from SHIFTLEFT_ACCESS_TOKEN")
	}

	ctx := cmd.Context()
	client := ngsast.NewClient(AppConfig, logger, token)
	runID := uuid.New().String()
	logger.Info("starting report run", "run_id", runID, "api_host", client.APIHost())

	apps := []ngsast.App{{ID: reportOptions.AppName, Name: reportOptions.AppName}}
	if reportOptions.AllApps {
		var err error
		apps, err = client.ListApps(ctx, orgID)
		if err != nil {
			logger.Error("failed to list apps", "error", err)
			return fmt.Errorf("failed to list apps: %w", err)
		}
		logger.Info("collected apps", "count", len(apps))
	}

	console := report.NewConsole(os.Stdout)
	allCohorts := bestfix.NewCohorts()
	counts := make(map[string]int)
	total := 0
	appendMode := reportOptions.Append

	var allAnnotated []bestfix.AnnotatedFinding
	for _, app := range apps {
		scan, findings, err := client.FindingsWithScan(ctx, orgID, app.ID, reportOptions.ScanVersion, AppConfig.NGSAST.Ratings)
		if err != nil {
			logger.Error("failed to retrieve findings", "app", app.ID, "error", err)
			if !reportOptions.AllApps {
				return fmt.Errorf("failed to retrieve findings for %s: %w", app.ID, err)
			}
			continue
		}

		engine := bestfix.NewEngine(logger, bestfix.Options{
			SourceDir:       reportOptions.SourceDir,
			AppID:           app.ID,
			AnchorGap:       AppConfig.BestFix.AnchorGap,
			MaxSnippetLines: AppConfig.BestFix.MaxSnippetLines,
			CheckLabels:     AppConfig.BestFix.CheckLabels,
			Threads:         reportOptions.Threads,
		})
		annotated, cohorts := engine.ProcessFindings(ctx, findings)

		scanVersion, scanID := "", ""
		if scan != nil {
			scanVersion = scan.Version
			scanID = scan.ID.String()
		}
		console.PrintAppHeader(app.ID, scanVersion, len(annotated))
		for _, finding := range annotated {
			deepLink := ""
			if scanID != "" {
				deepLink = ngsast.DeepLink(client.APIHost(), app.ID, scanID, finding.ID)
			}
			console.PrintFinding(finding, deepLink)
			counts[finding.CVSS31SeverityRating]++
		}

		if err := report.WriteFindingsCSV(reportOptions.OutputPath, annotated, appendMode); err != nil {
			logger.Error("failed to write report", "path", reportOptions.OutputPath, "error", err)
			return fmt.Errorf("failed to write report: %w", err)
		}
		appendMode = true
		total += len(annotated)
		allAnnotated = append(allAnnotated, annotated...)
		allCohorts.Merge(cohorts)
	}

	console.PrintCohorts(allCohorts.Rows())
	console.PrintSummary(counts, total)

	if reportOptions.CohortsPath != "" {
		if err := report.WriteCohortsCSV(reportOptions.CohortsPath, allCohorts.Rows()); err != nil {
			logger.Error("failed to write cohorts report", "path", reportOptions.CohortsPath, "error", err)
			return fmt.Errorf("failed to write cohorts report: %w", err)
		}
	}
	if reportOptions.SarifPath != "" {
		if err := report.WriteSarifReport(reportOptions.SarifPath, sarifAppLabel(), allAnnotated); err != nil {
			logger.Error("failed to write sarif report", "path", reportOptions.SarifPath, "error", err)
			return fmt.Errorf("failed to write sarif report: %w", err)
		}
	}

	if reportOptions.Upload {
		if err := uploadReports(runID); err != nil {
			logger.Error("failed to upload reports", "error", err)
			return fmt.Errorf("failed to upload reports: %w", err)
		}
	}

	logger.Info("report command completed successfully")
	logger.Info("results saved to file", "path", reportOptions.OutputPath)
	return nil
}

// sarifAppLabel names the SARIF tool run. A multi-app report has no single
// app to name it after.
func sarifAppLabel() string {
	if reportOptions.AllApps {
		return "ngsast"
	}
	return reportOptions.AppName
}

// uploadReports pushes the generated report files to the configured S3 bucket
// under the run id.
func uploadReports(runID string) error {
	uploader := &artifacts.Uploader{
		Bucket: AppConfig.Artifacts.S3Bucket,
		Region: AppConfig.Artifacts.S3Region,
		Logger: logger,
	}

	for _, path := range []string{reportOptions.OutputPath, reportOptions.CohortsPath, reportOptions.SarifPath} {
		if path == "" {
			continue
		}
		location, err := uploader.Upload(sarifAppLabel(), runID, path)
		if err != nil {
			return err
		}
		logger.Info("uploaded report", "path", path, "location", location)
	}
	return nil
}

func init() {
	ReportCmd.Flags().StringVarP(&reportOptions.AppName, "app", "a", "", "Name of the NG SAST app (defaults to SHIFTLEFT_APP).")
	ReportCmd.Flags().StringVarP(&reportOptions.ScanVersion, "version", "v", "", "Scan version to report on (defaults to the latest scan).")
	ReportCmd.Flags().StringVarP(&reportOptions.SourceDir, "source-dir", "s", ".", "Path to the source checkout the findings were scanned from.")
	ReportCmd.Flags().StringVarP(&reportOptions.OutputPath, "output", "o", "ngsast-bestfix-report.csv", "Path to the CSV report file.")
	ReportCmd.Flags().StringVar(&reportOptions.CohortsPath, "cohorts-output", "", "Path to an optional CSV file with similar finding cohorts.")
	ReportCmd.Flags().StringVar(&reportOptions.SarifPath, "sarif-output", "", "Path to an optional SARIF report file.")
	ReportCmd.Flags().BoolVar(&reportOptions.Append, "append", false, "Append to the CSV report instead of overwriting it.")
	ReportCmd.Flags().BoolVar(&reportOptions.AllApps, "all-apps", false, "Report on every app of the organization.")
	ReportCmd.Flags().IntVarP(&reportOptions.Threads, "threads", "j", 0, "Number of findings to process concurrently (defaults to the configured value).")
	ReportCmd.Flags().BoolVar(&reportOptions.Upload, "upload", false, "Upload the generated reports to the configured S3 bucket.")
	ReportCmd.Flags().BoolP("help", "h", false, "Show help for the report command.")
}
