package persistence

import (
	"os"
	"path/filepath"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
	"github.com/ricochet2200/go-disk-usage/du"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/config"
	"github.com/spacemeshos/loquat/shared"
)

// OwnerReadWriteExec is a standard owner read / write / exec file permission.
const OwnerReadWriteExec = 0o700

// OwnerReadWrite is a standard owner read / write file permission.
const OwnerReadWrite = 0o600

var ErrNotExist = errors.New("object doesn't exist")

// Store keeps encoded objects in the layout of a data directory.
type Store struct {
	codec  *Codec
	layout config.Layout
}

func NewStore(layout config.Layout, opts ...OptionFunc) (*Store, error) {
	codec, err := NewCodec(opts...)
	if err != nil {
		return nil, err
	}
	return &Store{codec: codec, layout: layout}, nil
}

func (s *Store) Codec() *Codec {
	return s.codec
}

func (s *Store) Layout() config.Layout {
	return s.layout
}

// AvailableSpace returns the free bytes of the file system holding path.
func AvailableSpace(path string) uint64 {
	return du.NewDiskUsage(path).Available()
}

// WriteFile writes data owner-only to path, creating its directory when needed.
func (s *Store) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, OwnerReadWriteExec); err != nil {
		return errors.Wrap(err, "dir creation failure")
	}

	if !s.codec.opts.disableSpaceCheck {
		required := uint64(len(data))
		if available := AvailableSpace(dir); required > available {
			return errors.Errorf("not enough disk space. required: %v, available: %v",
				bytefmt.ByteSize(required), bytefmt.ByteSize(available))
		}
	}

	if err := os.WriteFile(path, data, OwnerReadWrite); err != nil {
		return errors.Wrap(err, "write to disk failure")
	}
	s.codec.opts.logger.Info("persistence: saved",
		zap.String("path", path),
		zap.String("size", bytefmt.ByteSize(uint64(len(data)))),
	)
	return nil
}

func (s *Store) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotExist, path)
		}
		return nil, errors.Wrap(err, "read file failure")
	}
	return data, nil
}

// withPath attaches the file path to a hash mismatch reported by the codec.
func withPath(err error, path string) error {
	var mismatch shared.HashMismatchError
	if errors.As(err, &mismatch) {
		mismatch.Path = path
		return mismatch
	}
	return errors.Wrap(err, path)
}

func (s *Store) SaveKeyPair(name string, kp *shared.KeyPair) (string, error) {
	data, err := s.codec.EncodeKeyPair(kp)
	if err != nil {
		return "", err
	}
	path := s.layout.KeyPairFile(name)
	return path, s.WriteFile(path, data)
}

func (s *Store) LoadKeyPair(name string) (*shared.KeyPair, error) {
	path := s.layout.KeyPairFile(name)
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kp, err := s.codec.DecodeKeyPair(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return kp, nil
}

func (s *Store) SavePublicKey(name string, pk shared.PublicKey) (string, error) {
	data, err := s.codec.EncodePublicKey(pk)
	if err != nil {
		return "", err
	}
	path := s.layout.PublicKeyFile(name)
	return path, s.WriteFile(path, data)
}

func (s *Store) LoadPublicKey(name string) (shared.PublicKey, error) {
	return s.LoadPublicKeyFile(s.layout.PublicKeyFile(name))
}

// LoadPublicKeyFile reads a public key exported to an arbitrary path.
func (s *Store) LoadPublicKeyFile(path string) (shared.PublicKey, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return shared.PublicKey{}, err
	}
	pk, err := s.codec.DecodePublicKey(data)
	if err != nil {
		return shared.PublicKey{}, withPath(err, path)
	}
	return pk, nil
}

func (s *Store) SaveCredential(name string, cred *shared.Credential) (string, error) {
	data, err := s.codec.EncodeCredential(cred)
	if err != nil {
		return "", err
	}
	path := s.layout.CredentialFile(name)
	return path, s.WriteFile(path, data)
}

func (s *Store) LoadCredential(name string) (*shared.Credential, error) {
	path := s.layout.CredentialFile(name)
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cred, err := s.codec.DecodeCredential(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return cred, nil
}

func (s *Store) SaveDisclosure(name string, d *shared.Disclosure) (string, error) {
	data, err := s.codec.EncodeDisclosure(d)
	if err != nil {
		return "", err
	}
	path := s.layout.DisclosureFile(name)
	return path, s.WriteFile(path, data)
}

func (s *Store) LoadDisclosure(name string) (*shared.Disclosure, error) {
	return s.LoadDisclosureFile(s.layout.DisclosureFile(name))
}

// LoadDisclosureFile reads a disclosure received from a holder at an arbitrary path.
func (s *Store) LoadDisclosureFile(path string) (*shared.Disclosure, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := s.codec.DecodeDisclosure(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return d, nil
}
