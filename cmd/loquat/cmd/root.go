package cmd

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/loquat/config"
	"github.com/spacemeshos/loquat/hashing"
	"github.com/spacemeshos/loquat/persistence"
)

var (
	Version string
	Commit  string

	cfgFile     string
	printConfig bool

	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
	store  *persistence.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loquat",
	Short: "Issue, selectively disclose and verify signed attribute sets",
	Long: `loquat signs an ordered set of attributes with a single field element and lets the
holder reveal any subset of them. A verifier checks the revealed attributes against the
issuer's public key without learning the others.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", Version, Commit)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		if printConfig {
			spew.Dump(cfg)
		}

		logger, err = newLogger(cfg.Level())
		if err != nil {
			return errors.Wrap(err, "failed to initialize zap logger")
		}

		store, err = persistence.NewStore(config.DeriveLayout(cfg),
			persistence.WithConfig(cfg),
			persistence.WithLogger(logger),
		)
		return err
	}

	defaults := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", fmt.Sprintf("path to configuration file (default %v)", defaultConfigFile))
	flags.BoolVar(&printConfig, "print-config", false, "print the used config")

	flags.String("datadir", defaults.DataDir, "filesystem datadir path")
	flags.String("hash", defaults.Hash, fmt.Sprintf("hash oracle, one of %v", hashing.Names()))
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.Uint("workers", defaults.Workers, "number of disclosures verified in parallel")
	flags.Uint("max-attributes", defaults.MaxAttributes, "max number of attributes accepted when decoding")
	flags.Uint("max-value-size", defaults.MaxValueSize, "max size of a single attribute value accepted when decoding")
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		// stdout carries command output
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapCfg.Build()
}
