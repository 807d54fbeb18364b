package config

import "path/filepath"

const (
	keysDirName        = "keys"
	credentialsDirName = "credentials"
	disclosuresDirName = "disclosures"
)

// Layout is the on-disk arrangement of a data directory.
type Layout struct {
	KeysDir        string
	CredentialsDir string
	DisclosuresDir string
}

func DeriveLayout(cfg Config) Layout {
	return Layout{
		KeysDir:        filepath.Join(cfg.DataDir, keysDirName),
		CredentialsDir: filepath.Join(cfg.DataDir, credentialsDirName),
		DisclosuresDir: filepath.Join(cfg.DataDir, disclosuresDirName),
	}
}

func (l Layout) KeyPairFile(name string) string {
	return filepath.Join(l.KeysDir, name+".key")
}

func (l Layout) PublicKeyFile(name string) string {
	return filepath.Join(l.KeysDir, name+".pub")
}

func (l Layout) CredentialFile(name string) string {
	return filepath.Join(l.CredentialsDir, name+".cred")
}

func (l Layout) DisclosureFile(name string) string {
	return filepath.Join(l.DisclosuresDir, name+".disc")
}
