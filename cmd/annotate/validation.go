package annotate

import (
	"fmt"
	"os"

	"github.com/ngsast/bestfix/internal/config"
)

// validateAnnotateArgs validates the arguments provided to the annotate command.
func validateAnnotateArgs(options *RunOptionsAnnotate, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("invalid argument(s) received, the annotate command takes no positional arguments")
	}

	if options.InputPath != "" {
		if _, err := os.Stat(options.InputPath); err != nil {
			return fmt.Errorf("the 'input' path is not accessible: %w", err)
		}
	} else {
		if config.AccessToken() == "" {
			return fmt.Errorf("the SHIFTLEFT_ACCESS_TOKEN environment variable must be set")
		}
		if options.AppName == "" {
			options.AppName = config.DefaultApp()
		}
		if options.AppName == "" {
			return fmt.Errorf("one of the 'app' and 'input' flags must be specified")
		}
	}

	if options.SourceDir == "" {
		return fmt.Errorf("the 'source-dir' flag must be specified")
	}
	if _, err := os.Stat(options.SourceDir); err != nil {
		return fmt.Errorf("the 'source-dir' path is not accessible: %w", err)
	}

	if options.LocalDiff && !options.ChangedFilesOnly {
		return fmt.Errorf("the 'local-diff' flag requires the 'changed-files-only' flag")
	}

	if options.Threads < 1 {
		options.Threads = AppConfig.BestFix.Threads
	}

	return nil
}
