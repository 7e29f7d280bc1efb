package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngsast/bestfix/cmd/annotate"
	"github.com/ngsast/bestfix/cmd/policygen"
	"github.com/ngsast/bestfix/cmd/report"
	"github.com/ngsast/bestfix/cmd/version"
	"github.com/ngsast/bestfix/internal/config"
	"github.com/ngsast/bestfix/internal/logger"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "bestfix [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Bestfix suggests remediation for NG SAST findings.",
		Long: `Bestfix retrieves findings from the NG SAST API, walks their taint
dataflows against the local source checkout and derives an annotated report
with a suggested best fix per finding.
`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(report.ReportCmd)
	rootCmd.AddCommand(policygen.PolicygenCmd)
	rootCmd.AddCommand(annotate.AnnotateCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	var err error

	explicit := cfgFile != ""
	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	coreLogger := logger.NewLogger(AppConfig, "core")
	report.Init(AppConfig, coreLogger)
	policygen.Init(AppConfig, coreLogger)
	annotate.Init(AppConfig, coreLogger)
}
