package annotate

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ngsast/bestfix/internal/annotate"
	"github.com/ngsast/bestfix/internal/bestfix"
	"github.com/ngsast/bestfix/internal/config"
	"github.com/ngsast/bestfix/internal/gitrepo"
	"github.com/ngsast/bestfix/internal/ngsast"
	"github.com/ngsast/bestfix/internal/report"
)

// RunOptionsAnnotate holds the arguments of the annotate command.
type RunOptionsAnnotate struct {
	AppName          string
	ScanVersion      string
	SourceDir        string
	InputPath        string
	ServerURL        string
	ChangedFilesOnly bool
	LocalDiff        bool
	Threads          int
}

// Global variables for configuration and command arguments
var (
	AppConfig       *config.Config
	logger          hclog.Logger
	annotateOptions RunOptionsAnnotate

	exampleAnnotateUsage = `  # Post a best-fix comment on the scanned commit for every finding
  bestfix annotate --app my-app --source-dir /path/to/checkout

  # Annotate from a previously generated CSV report instead of the API
  bestfix annotate --input ngsast-bestfix-report.csv --source-dir /path/to/checkout

  # Comment only on the files the commit touched
  bestfix annotate --app my-app --source-dir /path/to/checkout --changed-files-only

  # Annotate commits on a self-hosted server
  bestfix annotate --app my-app --source-dir /path/to/checkout --server-url https://github.example.com`
)

// AnnotateCmd represents the command for the annotate command.
var AnnotateCmd = &cobra.Command{
	Use:                   "annotate {--app/-a APP_NAME | --input/-i PATH} --source-dir/-s PATH [--changed-files-only]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnnotateUsage,
	Short:                 "Post best-fix suggestions as commit comments on GitHub or GitLab",
	RunE:                  runAnnotateCommand,
}

// Init initializes the global configuration and logger for the annotate command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runAnnotateCommand(cmd *cobra.Command, args []string) error {
	if err := validateAnnotateArgs(&annotateOptions, args); err != nil {
		logger.Error("invalid annotate arguments", "error", err)
		return fmt.Errorf("invalid annotate arguments: %w", err)
	}

	ctx := cmd.Context()

	md, err := gitrepo.CollectMetadata(annotateOptions.SourceDir)
	if err != nil {
		logger.Error("failed to read repository metadata", "dir", annotateOptions.SourceDir, "error", err)
		return fmt.Errorf("failed to read repository metadata: %w", err)
	}
	target, err := annotate.ResolveTarget(md)
	if err != nil {
		logger.Error("failed to resolve the annotation target", "remote", md.RemoteURL, "error", err)
		return fmt.Errorf("failed to resolve the annotation target: %w", err)
	}
	logger.Info("annotating commit", "provider", target.Provider, "repository", target.Owner+"/"+target.Repository, "commit", target.CommitSHA)

	// Annotation is best effort. A pipeline without a provider token still
	// produced its report, so missing credentials are not a failure.
	token := providerToken(target.Provider)
	if token == "" {
		logger.Warn("no provider token set, skipping annotation", "provider", target.Provider)
		return nil
	}

	annotated, deepLinks, err := collectFindings(ctx)
	if err != nil {
		return err
	}

	commenter, err := newCommenter(ctx, target, md, token)
	if err != nil {
		logger.Error("failed to set up the provider client", "provider", target.Provider, "error", err)
		return fmt.Errorf("failed to set up the provider client: %w", err)
	}

	annotator := annotate.NewAnnotator(commenter, annotate.Options{ChangedFilesOnly: annotateOptions.ChangedFilesOnly}, logger)
	posted, err := annotator.Annotate(ctx, target, annotated, deepLinks)
	if err != nil {
		logger.Error("annotate command failed", "error", err)
		return fmt.Errorf("annotate command failed: %w", err)
	}

	logger.Info("annotate command completed successfully")
	logger.Info("statistic", "number_findings", len(annotated), "number_comments", posted)
	return nil
}

// collectFindings loads the annotated findings from the CSV report when one
// was given, otherwise retrieves the app's findings and runs the reasoning
// engine on them. Deep links are only available on the API path; the CSV
// carries no scan id.
func collectFindings(ctx context.Context) ([]bestfix.AnnotatedFinding, map[string]string, error) {
	if annotateOptions.InputPath != "" {
		annotated, err := report.ReadFindingsCSV(annotateOptions.InputPath)
		if err != nil {
			logger.Error("failed to read the findings report", "path", annotateOptions.InputPath, "error", err)
			return nil, nil, fmt.Errorf("failed to read the findings report: %w", err)
		}
		return annotated, nil, nil
	}

	token := config.AccessToken()
	orgID := ngsast.ExtractOrgID(token)
	if orgID == "" {
		return nil, nil, fmt.Errorf("unable to detect the organization id from SHIFTLEFT_ACCESS_TOKEN")
	}

	client := ngsast.NewClient(AppConfig, logger, token)
	scan, findings, err := client.FindingsWithScan(ctx, orgID, annotateOptions.AppName, annotateOptions.ScanVersion, AppConfig.NGSAST.Ratings)
	if err != nil {
		logger.Error("failed to retrieve findings", "app", annotateOptions.AppName, "error", err)
		return nil, nil, fmt.Errorf("failed to retrieve findings for %s: %w", annotateOptions.AppName, err)
	}

	engine := bestfix.NewEngine(logger, bestfix.Options{
		SourceDir:       annotateOptions.SourceDir,
		AppID:           annotateOptions.AppName,
		AnchorGap:       AppConfig.BestFix.AnchorGap,
		MaxSnippetLines: AppConfig.BestFix.MaxSnippetLines,
		CheckLabels:     AppConfig.BestFix.CheckLabels,
		Threads:         annotateOptions.Threads,
	})
	annotated, _ := engine.ProcessFindings(ctx, findings)

	deepLinks := make(map[string]string, len(annotated))
	if scan != nil {
		for _, finding := range annotated {
			deepLinks[finding.ID] = ngsast.DeepLink(client.APIHost(), annotateOptions.AppName, scan.ID.String(), finding.ID)
		}
	}
	return annotated, deepLinks, nil
}

// providerToken returns the credential for the resolved hosting provider.
func providerToken(provider string) string {
	if provider == "gitlab" {
		return os.Getenv("GITLAB_TOKEN")
	}
	return os.Getenv("GITHUB_TOKEN")
}

// newCommenter builds the provider client for the resolved target. With the
// local-diff flag the changed-files lookup is answered from the clone itself
// instead of a provider API call.
func newCommenter(ctx context.Context, target annotate.Target, md *gitrepo.Metadata, token string) (annotate.Commenter, error) {
	var (
		commenter annotate.Commenter
		err       error
	)
	switch target.Provider {
	case "github":
		commenter, err = annotate.NewGithubCommenter(ctx, token, annotateOptions.ServerURL)
	case "gitlab":
		commenter, err = annotate.NewGitlabCommenter(token, annotateOptions.ServerURL)
	default:
		return nil, fmt.Errorf("unsupported hosting provider: %s", target.Provider)
	}
	if err != nil {
		return nil, err
	}

	if annotateOptions.LocalDiff {
		files, err := gitrepo.ChangedFiles(md.RepoRoot, md.CommitHash)
		if err != nil {
			return nil, fmt.Errorf("failed to read the commit diff: %w", err)
		}
		return localDiffCommenter{Commenter: commenter, files: files}, nil
	}
	return commenter, nil
}

// localDiffCommenter overrides the changed-files lookup with the paths read
// from the local clone.
type localDiffCommenter struct {
	annotate.Commenter
	files []string
}

func (l localDiffCommenter) ChangedFiles(ctx context.Context, target annotate.Target) ([]string, error) {
	return l.files, nil
}

func init() {
	AnnotateCmd.Flags().StringVarP(&annotateOptions.AppName, "app", "a", "", "Name of the NG SAST app (defaults to SHIFTLEFT_APP).")
	AnnotateCmd.Flags().StringVarP(&annotateOptions.ScanVersion, "version", "v", "", "Scan version to annotate (defaults to the latest scan).")
	AnnotateCmd.Flags().StringVarP(&annotateOptions.SourceDir, "source-dir", "s", ".", "Path to the clone of the scanned repository.")
	AnnotateCmd.Flags().StringVarP(&annotateOptions.InputPath, "input", "i", "", "Path to a CSV report to annotate from instead of the API.")
	AnnotateCmd.Flags().StringVar(&annotateOptions.ServerURL, "server-url", "", "Base URL of a self-hosted GitHub or GitLab server.")
	AnnotateCmd.Flags().BoolVar(&annotateOptions.ChangedFilesOnly, "changed-files-only", false, "Comment only on files the commit touched.")
	AnnotateCmd.Flags().BoolVar(&annotateOptions.LocalDiff, "local-diff", false, "Resolve the commit's changed files from the local clone instead of the provider API.")
	AnnotateCmd.Flags().IntVarP(&annotateOptions.Threads, "threads", "j", 0, "Number of findings to process concurrently (defaults to the configured value).")
	AnnotateCmd.Flags().BoolP("help", "h", false, "Show help for the annotate command.")
}
