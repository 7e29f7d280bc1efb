package policygen

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ngsast/bestfix/internal/config"
	"github.com/ngsast/bestfix/internal/ngsast"
	"github.com/ngsast/bestfix/internal/policy"
)

// RunOptionsPolicygen holds the arguments of the policygen command.
type RunOptionsPolicygen struct {
	AppName     string
	ScanVersion string
	OutputPath  string
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	logger           hclog.Logger
	policygenOptions RunOptionsPolicygen

	examplePolicygenUsage = `  # Generate a starter policy from the findings of an app
  bestfix policygen --app my-app -o my-app.policy

  # Generate a starter policy from a particular scan version
  bestfix policygen --app my-app --version b9bb2a8 -o my-app.policy`
)

// PolicygenCmd represents the command for the policygen command.
var PolicygenCmd = &cobra.Command{
	Use:                   "policygen --app/-a APP_NAME [--version VERSION] [--output/-o PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               examplePolicygenUsage,
	Short:                 "Generate a starter NG SAST policy from the observed dataflows",
	RunE:                  runPolicygenCommand,
}

// Init initializes the global configuration and logger for the policygen command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runPolicygenCommand(cmd *cobra.Command, args []string) error {
	if err := validatePolicygenArgs(&policygenOptions, args); err != nil {
		logger.Error("invalid policygen arguments", "error", err)
		return fmt.Errorf("invalid policygen arguments: %w", err)
	}

	token := config.AccessToken()
	orgID := ngsast.ExtractOrgID(token)
	if orgID == "" {
		return fmt.Errorf("unable to detect the organization id from SHIFTLEFT_ACCESS_TOKEN")
	}

	ctx := cmd.Context()
	client := ngsast.NewClient(AppConfig, logger, token)

	_, findings, err := client.FindingsWithScan(ctx, orgID, policygenOptions.AppName, policygenOptions.ScanVersion, AppConfig.NGSAST.Ratings)
	if err != nil {
		logger.Error("failed to retrieve findings", "app", policygenOptions.AppName, "error", err)
		return fmt.Errorf("failed to retrieve findings for %s: %w", policygenOptions.AppName, err)
	}
	if len(findings) == 0 {
		logger.Warn("no findings to derive a policy from", "app", policygenOptions.AppName)
		return nil
	}

	analysis := policy.Analyze(findings)
	if err := policy.WriteFile(policygenOptions.OutputPath, analysis); err != nil {
		logger.Error("failed to write policy file", "path", policygenOptions.OutputPath, "error", err)
		return fmt.Errorf("failed to write policy file: %w", err)
	}

	logger.Info("policygen command completed successfully")
	logger.Info("policy saved to file", "path", policygenOptions.OutputPath)
	fmt.Print(policy.Instructions(policygenOptions.OutputPath, policygenOptions.AppName, orgID))
	return nil
}

func init() {
	PolicygenCmd.Flags().StringVarP(&policygenOptions.AppName, "app", "a", "", "Name of the NG SAST app (defaults to SHIFTLEFT_APP).")
	PolicygenCmd.Flags().StringVarP(&policygenOptions.ScanVersion, "version", "v", "", "Scan version to derive the policy from (defaults to the latest scan).")
	PolicygenCmd.Flags().StringVarP(&policygenOptions.OutputPath, "output", "o", "ngsast.policy", "Path to the generated policy file.")
	PolicygenCmd.Flags().BoolP("help", "h", false, "Show help for the policygen command.")
}
