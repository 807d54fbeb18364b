package verifying

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/config"
	"github.com/spacemeshos/loquat/hashing"
)

type option struct {
	oracle hashing.Oracle
	logger *zap.Logger
	// number of disclosures verified concurrently by VerifyBatch
	workers int
}

func applyOpts(options ...OptionFunc) (*option, error) {
	opts := &option{
		oracle:  hashing.DefaultOracle(),
		logger:  zap.NewNop(),
		workers: int(config.DefaultWorkers()),
	}
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

type OptionFunc func(*option) error

func WithOracle(o hashing.Oracle) OptionFunc {
	return func(opts *option) error {
		if o == nil {
			return errors.New("`oracle` must not be nil")
		}
		opts.oracle = o
		return nil
	}
}

// WithLogger sets the logger that records, at debug level, why a disclosure was rejected.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opts *option) error {
		if logger == nil {
			return errors.New("`logger` must not be nil")
		}
		opts.logger = logger
		return nil
	}
}

func WithWorkers(n uint) OptionFunc {
	return func(opts *option) error {
		if n == 0 {
			return errors.New("`workers` must be greater than 0")
		}
		opts.workers = int(n)
		return nil
	}
}

// WithConfig applies the hash and worker settings of cfg.
func WithConfig(cfg config.Config) OptionFunc {
	return func(opts *option) error {
		o, err := cfg.Oracle()
		if err != nil {
			return err
		}
		if err := WithWorkers(cfg.Workers)(opts); err != nil {
			return err
		}
		opts.oracle = o
		return nil
	}
}
