package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ue4ss-installer/config"
	"ue4ss-installer/logger"
)

var (
	configDir      string
	disableLogFile bool
	logPrefix      string
	verbose        bool

	// appConfig is loaded once before any command runs.
	appConfig config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ue4ss-installer",
	Short: "Install, update and remove UE4SS for your Unreal Engine games",
	Long: `ue4ss-installer keeps track of your Unreal Engine games and installs
UE4SS releases from GitHub into their executable directory.

Run without a subcommand to open the interactive game list.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory to read the .env file from")
	rootCmd.PersistentFlags().BoolVar(&disableLogFile, "disable-log-file", false, "Only log to stderr")
	rootCmd.PersistentFlags().StringVar(&logPrefix, "log-prefix", logger.DefaultPrefix, "Prefix of the log file names")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print info level logs to stderr")
}

// setup loads the configuration and starts the logger.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	appConfig = cfg

	err = logger.InitLogger(logger.Options{
		Dir:         cfg.LogDir,
		Prefix:      logPrefix,
		DisableFile: disableLogFile,
		Verbose:     verbose,
	})
	if err != nil {
		return err
	}
	logger.Log.Infow("Configuration loaded",
		zap.String("home", cfg.HomeDir),
		zap.String("repo", cfg.ReleasesRepo),
		zap.String("command", cmd.CommandPath()),
	)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
