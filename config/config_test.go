package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/loquat/config"
	"github.com/spacemeshos/loquat/hashing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()

	require.NoError(t, cfg.Validate())
	require.Equal(t, hashing.Default, cfg.Hash)
	require.NotZero(t, cfg.Workers)
	require.Equal(t, zapcore.InfoLevel, cfg.Level())

	o, err := cfg.Oracle()
	require.NoError(t, err)
	require.Equal(t, hashing.Default, o.Name())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"empty datadir", func(c *config.Config) { c.DataDir = "" }},
		{"unknown hash", func(c *config.Config) { c.Hash = "md5" }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"no workers", func(c *config.Config) { c.Workers = 0 }},
		{"too many workers", func(c *config.Config) { c.Workers = config.MaxWorkers + 1 }},
		{"no attributes", func(c *config.Config) { c.MaxAttributes = 0 }},
		{"too many attributes", func(c *config.Config) { c.MaxAttributes = config.MaxAttributes + 1 }},
		{"no value size", func(c *config.Config) { c.MaxValueSize = 0 }},
		{"value size too large", func(c *config.Config) { c.MaxValueSize = config.MaxValueSize + 1 }},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestDeriveLayout(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	l := config.DeriveLayout(cfg)
	require.Equal(t, filepath.Join(cfg.DataDir, "keys"), l.KeysDir)
	require.Equal(t, filepath.Join(cfg.DataDir, "keys", "issuer.key"), l.KeyPairFile("issuer"))
	require.Equal(t, filepath.Join(cfg.DataDir, "keys", "issuer.pub"), l.PublicKeyFile("issuer"))
	require.Equal(t, filepath.Join(cfg.DataDir, "credentials", "alice.cred"), l.CredentialFile("alice"))
	require.Equal(t, filepath.Join(cfg.DataDir, "disclosures", "alice.disc"), l.DisclosureFile("alice"))
}
