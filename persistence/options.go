package persistence

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/config"
	"github.com/spacemeshos/loquat/hashing"
)

type option struct {
	oracle        hashing.Oracle
	logger        *zap.Logger
	maxAttributes int
	maxValueSize  int
	// skip the free space check before writing
	disableSpaceCheck bool
}

func applyOpts(options ...OptionFunc) (*option, error) {
	opts := &option{
		oracle:        hashing.DefaultOracle(),
		logger:        zap.NewNop(),
		maxAttributes: config.DefaultMaxAttributes,
		maxValueSize:  config.DefaultMaxValueSize,
	}
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

type OptionFunc func(*option) error

// WithOracle sets the hash oracle that decoded objects must have been made with.
func WithOracle(o hashing.Oracle) OptionFunc {
	return func(opts *option) error {
		if o == nil {
			return errors.New("`oracle` must not be nil")
		}
		opts.oracle = o
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opts *option) error {
		if logger == nil {
			return errors.New("`logger` must not be nil")
		}
		opts.logger = logger
		return nil
	}
}

// WithLimits bounds the number of attributes and the size of a single attribute value
// accepted while decoding.
func WithLimits(maxAttributes, maxValueSize uint) OptionFunc {
	return func(opts *option) error {
		if maxAttributes == 0 || maxAttributes > config.MaxAttributes {
			return errors.Errorf("`maxAttributes` must be in [1, %d], given: %d", config.MaxAttributes, maxAttributes)
		}
		if maxValueSize == 0 || maxValueSize > config.MaxValueSize {
			return errors.Errorf("`maxValueSize` must be in [1, %d], given: %d", config.MaxValueSize, maxValueSize)
		}
		opts.maxAttributes = int(maxAttributes)
		opts.maxValueSize = int(maxValueSize)
		return nil
	}
}

func WithoutSpaceCheck() OptionFunc {
	return func(opts *option) error {
		opts.disableSpaceCheck = true
		return nil
	}
}

// WithConfig applies the hash and decoding limits of cfg.
func WithConfig(cfg config.Config) OptionFunc {
	return func(opts *option) error {
		o, err := cfg.Oracle()
		if err != nil {
			return err
		}
		opts.oracle = o
		return WithLimits(cfg.MaxAttributes, cfg.MaxValueSize)(opts)
	}
}
