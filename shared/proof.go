package shared

import (
	"github.com/spacemeshos/loquat/field"
	"github.com/spacemeshos/loquat/hashing"
	"github.com/spacemeshos/loquat/merkle"
)

type PublicKey = hashing.Digest

// KeyPair is an issuer key. The secret never leaves its owner.
type KeyPair struct {
	Secret field.Element
	Public PublicKey
}

// Signature binds a secret key to the Merkle root of an attribute set:
// Sigma = Secret + H(MerkleRoot) mod P.
type Signature struct {
	Sigma      field.Element
	MerkleRoot hashing.Digest
}

// Credential is the holder's copy of everything the issuer signed.
type Credential struct {
	Attributes [][]byte
	Signature  Signature
	Tree       *merkle.Tree
}

type DisclosedAttribute struct {
	Index int
	Value []byte
}

// Disclosure is the bundle a holder presents to a verifier.
type Disclosure struct {
	Indices IndexSet
	// Attributes is ordered by index.
	Attributes []DisclosedAttribute
	Proofs     map[int]merkle.Proof
	Signature  Signature
}

// CopyAttributes returns a deep copy of an attribute set.
func CopyAttributes(attributes [][]byte) [][]byte {
	ret := make([][]byte, len(attributes))
	for i, a := range attributes {
		ret[i] = append([]byte{}, a...)
	}
	return ret
}
