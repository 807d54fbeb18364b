package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/loquat/hashing"
)

// resetFlags restores every flag to its default, so that each execution in a test
// starts from a clean command line.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			var values []string
			if def := strings.Trim(f.DefValue, "[]"); def != "" {
				values = strings.Split(def, ",")
			}
			_ = sv.Replace(values)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestIssueDiscloseVerify(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	common := []string{"--datadir", dir, "--log-level", "error"}

	out, err := execute(t, append([]string{"keygen"}, common...)...)
	r.NoError(err, out)
	r.Contains(out, "public key:")

	_, err = execute(t, append([]string{"keygen"}, common...)...)
	r.ErrorIs(err, ErrKeyFileExists)

	out, err = execute(t, append([]string{"issue", "--name", "alice",
		"--attr", "name:Alice", "--attr", "age:30", "--attr", "country:NZ"}, common...)...)
	r.NoError(err, out)
	r.Contains(out, "merkle root:")

	out, err = execute(t, append([]string{"disclose", "--credential", "alice", "--index", "0,2"}, common...)...)
	r.NoError(err, out)
	r.Contains(out, "name:Alice")
	r.Contains(out, "country:NZ")
	r.NotContains(out, "age:30")

	disclosure := filepath.Join(dir, "disclosures", "alice.disc")
	r.FileExists(disclosure)

	garbage := filepath.Join(dir, "garbage.disc")
	r.NoError(os.WriteFile(garbage, []byte("not a disclosure"), 0o600))

	out, err = execute(t, append([]string{"verify", disclosure}, common...)...)
	r.NoError(err, out)
	r.Contains(out, "valid")

	out, err = execute(t, append([]string{"verify", disclosure, garbage}, common...)...)
	r.ErrorIs(err, ErrInvalidDisclosure)
	r.Contains(out, "malformed")

	// another hash oracle does not accept objects made with the default one
	_, err = execute(t, append([]string{"verify", "--hash", hashing.SHA256, disclosure}, common...)...)
	r.Error(err)
}

func TestConfigFile(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.toml")
	r.NoError(os.WriteFile(cfgPath, []byte(`
datadir = "`+filepath.ToSlash(filepath.Join(dir, "data"))+`"
hash = "shake128"
log-level = "warn"
workers = 3
`), 0o600))

	_, err := execute(t, "keygen", "--config", cfgPath, "--name", "configured")
	r.NoError(err)
	r.Equal(hashing.SHAKE128, cfg.Hash)
	r.Equal(uint(3), cfg.Workers)
	r.FileExists(filepath.Join(dir, "data", "keys", "configured.key"))

	_, err = execute(t, "keygen", "--config", filepath.Join(dir, "missing.toml"))
	r.Error(err)

	bad := filepath.Join(dir, "bad.toml")
	r.NoError(os.WriteFile(bad, []byte(`hash = "md5"`), 0o600))
	_, err = execute(t, "keygen", "--config", bad, "--datadir", dir)
	r.ErrorIs(err, hashing.ErrUnknownHash)
}
