// Package hashing provides the hash oracles used for signing and for Merkle commitments.
//
// Every oracle prefixes its input with a one-byte domain tag, so that leaf, node,
// message and key hashes can never collide with each other.
package hashing

import (
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/pkg/errors"
	"github.com/spacemeshos/sha256-simd"
	"golang.org/x/crypto/sha3"

	"github.com/spacemeshos/loquat/field"
)

const DigestSize = 32

const (
	tagLeaf byte = iota
	tagNode
	tagMessage
	tagPublicKey
)

const (
	SHA3_256 = "sha3-256"
	SHAKE128 = "shake128"
	SHA256   = "sha256"

	Default = SHA3_256
)

var ErrUnknownHash = errors.New("unknown hash function")

// Digest is a fixed-width hash output.
type Digest [DigestSize]byte

func (d Digest) Equal(o Digest) bool {
	return subtle.ConstantTimeCompare(d[:], o[:]) == 1
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Oracle is a deterministic, collision-resistant hash family.
type Oracle interface {
	Name() string
	// Message hashes arbitrary bytes and reduces the digest modulo P.
	Message(msg []byte) field.Element
	Leaf(value []byte) Digest
	// Node is order sensitive: Node(l, r) != Node(r, l) for l != r.
	Node(left, right Digest) Digest
	PublicKey(secret field.Element) Digest
}

type sumFunc func(tag byte, parts ...[]byte) Digest

type oracle struct {
	name string
	sum  sumFunc
}

func (o oracle) Name() string { return o.name }

func (o oracle) Message(msg []byte) field.Element {
	d := o.sum(tagMessage, msg)
	return field.FromBytes(d[:])
}

func (o oracle) Leaf(value []byte) Digest {
	return o.sum(tagLeaf, value)
}

func (o oracle) Node(left, right Digest) Digest {
	return o.sum(tagNode, left[:], right[:])
}

func (o oracle) PublicKey(secret field.Element) Digest {
	b := secret.Bytes()
	return o.sum(tagPublicKey, b[:])
}

func digestSum(newHash func() hash.Hash) sumFunc {
	return func(tag byte, parts ...[]byte) Digest {
		h := newHash()
		h.Write([]byte{tag})
		for _, p := range parts {
			h.Write(p)
		}
		var d Digest
		copy(d[:], h.Sum(nil))
		return d
	}
}

func shakeSum(tag byte, parts ...[]byte) Digest {
	h := sha3.NewShake128()
	_, _ = h.Write([]byte{tag})
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var d Digest
	_, _ = h.Read(d[:])
	return d
}

var registry = map[string]sumFunc{
	SHA3_256: digestSum(sha3.New256),
	SHAKE128: shakeSum,
	SHA256:   digestSum(sha256.New),
}

// New returns the oracle registered under name.
func New(name string) (Oracle, error) {
	sum, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHash, "%q; expected one of %v", name, Names())
	}
	return oracle{name: name, sum: sum}, nil
}

// MustNew is like New but panics on an unknown name.
func MustNew(name string) Oracle {
	o, err := New(name)
	if err != nil {
		panic(err)
	}
	return o
}

// DefaultOracle returns the SHA3-256 oracle.
func DefaultOracle() Oracle {
	return MustNew(Default)
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
