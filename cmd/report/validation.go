package report

import (
	"fmt"

	"github.com/ngsast/bestfix/internal/config"
)

// validateReportArgs validates the arguments provided to the report command
// and resolves the defaults that come from the environment and configuration.
func validateReportArgs(options *RunOptionsReport, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("invalid argument(s) received, the report command takes no positional arguments")
	}

	if config.AccessToken() == "" {
		return fmt.Errorf("the SHIFTLEFT_ACCESS_TOKEN environment variable must be set")
	}

	if !options.AllApps && options.AppName == "" {
		options.AppName = config.DefaultApp()
	}
	if options.AllApps && options.AppName != "" {
		return fmt.Errorf("specify only one of the 'app' flag or the 'all-apps' flag")
	}
	if !options.AllApps && options.AppName == "" {
		return fmt.Errorf("the 'app' flag must be specified")
	}

	if options.OutputPath == "" {
		return fmt.Errorf("the 'output' flag must be specified")
	}

	if options.Threads < 1 {
		options.Threads = AppConfig.BestFix.Threads
	}

	if options.Upload && AppConfig.Artifacts.S3Bucket == "" {
		return fmt.Errorf("the 'upload' flag requires an S3 bucket in the configuration")
	}

	return nil
}
