package issuing

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/hashing"
)

type option struct {
	oracle hashing.Oracle
	// source of the secret key; nil means crypto/rand
	random io.Reader
	logger *zap.Logger
}

func applyOpts(options ...OptionFunc) (*option, error) {
	opts := &option{
		oracle: hashing.DefaultOracle(),
		logger: zap.NewNop(),
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

// WithRandomSource replaces crypto/rand as the source of secret keys.
func WithRandomSource(r io.Reader) OptionFunc {
	return func(opts *option) error {
		opts.random = r
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
