package policygen

import (
	"fmt"

	"github.com/ngsast/bestfix/internal/config"
)

// validatePolicygenArgs validates the arguments provided to the policygen command.
func validatePolicygenArgs(options *RunOptionsPolicygen, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("invalid argument(s) received, the policygen command takes no positional arguments")
	}

	if config.AccessToken() == "" {
		return fmt.Errorf("the SHIFTLEFT_ACCESS_TOKEN environment variable must be set")
	}

	if options.AppName == "" {
		options.AppName = config.DefaultApp()
	}
	if options.AppName == "" {
		return fmt.Errorf("the 'app' flag must be specified")
	}

	if options.OutputPath == "" {
		return fmt.Errorf("the 'output' flag must be specified")
	}

	return nil
}
