package config

import (
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/spacemeshos/smutil"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/loquat/hashing"
)

const (
	MaxWorkers    = 1 << 10
	MaxAttributes = 1 << 20
	MaxValueSize  = 1 << 16
)

const (
	DefaultDataDirName   = "data"
	DefaultLogLevel      = "info"
	DefaultMaxAttributes = 1 << 10
	DefaultMaxValueSize  = 1 << 12
)

var DefaultDataDir = filepath.Join(smutil.GetUserHomeDirectory(), "loquat", DefaultDataDirName)

type Config struct {
	DataDir  string `mapstructure:"datadir"`
	Hash     string `mapstructure:"hash"`
	LogLevel string `mapstructure:"log-level"`

	// Number of disclosures verified in parallel by batch verification.
	Workers uint `mapstructure:"workers"`

	// Limits applied when decoding objects received from other parties.
	MaxAttributes uint `mapstructure:"max-attributes"`
	MaxValueSize  uint `mapstructure:"max-value-size"`
}

func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir,
		Hash:          hashing.Default,
		LogLevel:      DefaultLogLevel,
		Workers:       DefaultWorkers(),
		MaxAttributes: DefaultMaxAttributes,
		MaxValueSize:  DefaultMaxValueSize,
	}
}

// DefaultWorkers returns the number of logical CPUs.
func DefaultWorkers() uint {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	return uint(n)
}

func (cfg Config) Validate() error {
	if cfg.DataDir == "" {
		return errors.New("invalid `DataDir`; expected: non-empty")
	}

	if _, err := hashing.New(cfg.Hash); err != nil {
		return errors.Wrap(err, "invalid `Hash`")
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "invalid `LogLevel`")
	}

	if cfg.Workers == 0 {
		return errors.New("invalid `Workers`; expected: > 0, given: 0")
	}
	if cfg.Workers > MaxWorkers {
		return errors.Errorf("invalid `Workers`; expected: <= %d, given: %d", MaxWorkers, cfg.Workers)
	}

	if cfg.MaxAttributes == 0 || cfg.MaxAttributes > MaxAttributes {
		return errors.Errorf("invalid `MaxAttributes`; expected: in [1, %d], given: %d", MaxAttributes, cfg.MaxAttributes)
	}
	if cfg.MaxValueSize == 0 || cfg.MaxValueSize > MaxValueSize {
		return errors.Errorf("invalid `MaxValueSize`; expected: in [1, %d], given: %d", MaxValueSize, cfg.MaxValueSize)
	}

	return nil
}

// Oracle returns the hash oracle named by the config.
func (cfg Config) Oracle() (hashing.Oracle, error) {
	return hashing.New(cfg.Hash)
}

func (cfg Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
