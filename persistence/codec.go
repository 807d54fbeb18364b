// Package persistence encodes keys, credentials and disclosures to XDR and stores them
// in a data directory.
package persistence

import (
	"bytes"

	"github.com/nullstyle/go-xdr/xdr3"
	"github.com/pkg/errors"

	"github.com/spacemeshos/loquat/field"
	"github.com/spacemeshos/loquat/hashing"
	"github.com/spacemeshos/loquat/merkle"
	"github.com/spacemeshos/loquat/shared"
)

var ErrMalformed = errors.New("malformed encoding")

type wireSignature struct {
	Sigma      [field.ElementSize]byte
	MerkleRoot [hashing.DigestSize]byte
}

type wireAttribute struct {
	Index uint32
	Value []byte
}

type wireStep struct {
	Sibling [hashing.DigestSize]byte
	Left    bool
}

type wireProof struct {
	Index uint32
	Steps []wireStep
}

type wireDisclosure struct {
	Hash       string
	Signature  wireSignature
	Attributes []wireAttribute
	Proofs     []wireProof
}

type wireCredential struct {
	Hash       string
	Attributes [][]byte
	Signature  wireSignature
}

type wireKeyPair struct {
	Hash   string
	Secret [field.ElementSize]byte
	Public [hashing.DigestSize]byte
}

type wirePublicKey struct {
	Hash   string
	Public [hashing.DigestSize]byte
}

// Codec converts between in-memory objects and their XDR encoding. Decoding checks the
// hash oracle an object was made with and the configured size limits.
type Codec struct {
	opts *option
}

func NewCodec(opts ...OptionFunc) (*Codec, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Codec{opts: options}, nil
}

func (c *Codec) Oracle() hashing.Oracle {
	return c.opts.oracle
}

func marshal(v interface{}) ([]byte, error) {
	var w bytes.Buffer
	if _, err := xdr.Marshal(&w, v); err != nil {
		return nil, errors.Wrap(err, "serialization failure")
	}
	return w.Bytes(), nil
}

func unmarshal(data []byte, v interface{}) error {
	r := bytes.NewReader(data)
	if _, err := xdr.Unmarshal(r, v); err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	if r.Len() != 0 {
		return errors.Wrapf(ErrMalformed, "%d trailing bytes", r.Len())
	}
	return nil
}

func (c *Codec) checkHash(name string) error {
	if name != c.opts.oracle.Name() {
		return shared.HashMismatchError{Expected: c.opts.oracle.Name(), Found: name}
	}
	return nil
}

func (c *Codec) checkValue(value []byte) error {
	if len(value) > c.opts.maxValueSize {
		return errors.Wrapf(ErrMalformed, "attribute value of %d bytes exceeds %d", len(value), c.opts.maxValueSize)
	}
	return nil
}

func toWireSignature(sig shared.Signature) wireSignature {
	return wireSignature{
		Sigma:      sig.Sigma.Bytes(),
		MerkleRoot: sig.MerkleRoot,
	}
}

func fromWireSignature(w wireSignature) (shared.Signature, error) {
	sigma, err := field.FromCanonicalBytes(w.Sigma[:])
	if err != nil {
		return shared.Signature{}, errors.Wrap(err, "invalid sigma")
	}
	return shared.Signature{Sigma: sigma, MerkleRoot: w.MerkleRoot}, nil
}

func (c *Codec) EncodeSignature(sig shared.Signature) ([]byte, error) {
	w := toWireSignature(sig)
	return marshal(&w)
}

func (c *Codec) DecodeSignature(data []byte) (shared.Signature, error) {
	var w wireSignature
	if err := unmarshal(data, &w); err != nil {
		return shared.Signature{}, err
	}
	return fromWireSignature(w)
}

func (c *Codec) EncodePublicKey(pk shared.PublicKey) ([]byte, error) {
	return marshal(&wirePublicKey{Hash: c.opts.oracle.Name(), Public: pk})
}

func (c *Codec) DecodePublicKey(data []byte) (shared.PublicKey, error) {
	var w wirePublicKey
	if err := unmarshal(data, &w); err != nil {
		return shared.PublicKey{}, err
	}
	if err := c.checkHash(w.Hash); err != nil {
		return shared.PublicKey{}, err
	}
	return w.Public, nil
}

func (c *Codec) EncodeKeyPair(kp *shared.KeyPair) ([]byte, error) {
	return marshal(&wireKeyPair{
		Hash:   c.opts.oracle.Name(),
		Secret: kp.Secret.Bytes(),
		Public: kp.Public,
	})
}

// DecodeKeyPair also checks that the public key belongs to the secret.
func (c *Codec) DecodeKeyPair(data []byte) (*shared.KeyPair, error) {
	var w wireKeyPair
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	if err := c.checkHash(w.Hash); err != nil {
		return nil, err
	}
	secret, err := field.FromCanonicalBytes(w.Secret[:])
	if err != nil {
		return nil, errors.Wrap(err, "invalid secret")
	}
	kp := &shared.KeyPair{Secret: secret, Public: w.Public}
	if !c.opts.oracle.PublicKey(kp.Secret).Equal(kp.Public) {
		return nil, errors.Wrap(ErrMalformed, "public key does not belong to secret")
	}
	return kp, nil
}

func (c *Codec) EncodeCredential(cred *shared.Credential) ([]byte, error) {
	if len(cred.Attributes) == 0 {
		return nil, shared.ErrEmptyInput
	}
	return marshal(&wireCredential{
		Hash:       c.opts.oracle.Name(),
		Attributes: cred.Attributes,
		Signature:  toWireSignature(cred.Signature),
	})
}

// DecodeCredential rebuilds the Merkle tree over the stored attributes and requires its
// root to equal the signed one.
func (c *Codec) DecodeCredential(data []byte) (*shared.Credential, error) {
	var w wireCredential
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	if err := c.checkHash(w.Hash); err != nil {
		return nil, err
	}
	if len(w.Attributes) == 0 || len(w.Attributes) > c.opts.maxAttributes {
		return nil, errors.Wrapf(ErrMalformed, "attribute count %d not in [1, %d]", len(w.Attributes), c.opts.maxAttributes)
	}
	for _, a := range w.Attributes {
		if err := c.checkValue(a); err != nil {
			return nil, err
		}
	}
	sig, err := fromWireSignature(w.Signature)
	if err != nil {
		return nil, err
	}

	attributes := shared.CopyAttributes(w.Attributes)
	tree, err := merkle.Build(c.opts.oracle, attributes)
	if err != nil {
		return nil, err
	}
	if !tree.Root().Equal(sig.MerkleRoot) {
		return nil, errors.Wrap(ErrMalformed, "attributes do not match the signed root")
	}

	return &shared.Credential{
		Attributes: attributes,
		Signature:  sig,
		Tree:       tree,
	}, nil
}

// EncodeDisclosure writes attributes and their proofs in ascending index order.
func (c *Codec) EncodeDisclosure(d *shared.Disclosure) ([]byte, error) {
	if d == nil || len(d.Attributes) == 0 {
		return nil, shared.ErrEmptyDisclosure
	}

	w := wireDisclosure{
		Hash:       c.opts.oracle.Name(),
		Signature:  toWireSignature(d.Signature),
		Attributes: make([]wireAttribute, 0, len(d.Attributes)),
		Proofs:     make([]wireProof, 0, len(d.Attributes)),
	}
	for _, a := range d.Attributes {
		if a.Index < 0 || a.Index >= c.opts.maxAttributes {
			return nil, &shared.IndexError{Index: a.Index, Count: c.opts.maxAttributes, Err: shared.ErrInvalidIndex}
		}
		proof, ok := d.Proofs[a.Index]
		if !ok {
			return nil, errors.Errorf("missing proof for attribute %d", a.Index)
		}

		w.Attributes = append(w.Attributes, wireAttribute{Index: uint32(a.Index), Value: a.Value})
		steps := make([]wireStep, len(proof.Steps))
		for i, s := range proof.Steps {
			steps[i] = wireStep{Sibling: s.Sibling, Left: s.Left}
		}
		w.Proofs = append(w.Proofs, wireProof{Index: uint32(a.Index), Steps: steps})
	}
	return marshal(&w)
}

// DecodeDisclosure rejects duplicate or unordered indices and proofs that do not belong
// to a disclosed attribute. It does not verify the disclosure.
func (c *Codec) DecodeDisclosure(data []byte) (*shared.Disclosure, error) {
	var w wireDisclosure
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	if err := c.checkHash(w.Hash); err != nil {
		return nil, err
	}
	sig, err := fromWireSignature(w.Signature)
	if err != nil {
		return nil, err
	}

	n := len(w.Attributes)
	if n == 0 || n > c.opts.maxAttributes {
		return nil, errors.Wrapf(ErrMalformed, "attribute count %d not in [1, %d]", n, c.opts.maxAttributes)
	}
	if len(w.Proofs) != n {
		return nil, errors.Wrapf(ErrMalformed, "%d proofs for %d attributes", len(w.Proofs), n)
	}

	d := &shared.Disclosure{
		Indices:    make(shared.IndexSet, n),
		Attributes: make([]shared.DisclosedAttribute, 0, n),
		Proofs:     make(map[int]merkle.Proof, n),
		Signature:  sig,
	}

	prev := -1
	for _, a := range w.Attributes {
		if a.Index >= uint32(c.opts.maxAttributes) {
			return nil, errors.Wrapf(ErrMalformed, "attribute index %d out of range", a.Index)
		}
		idx := int(a.Index)
		if idx <= prev {
			return nil, errors.Wrapf(ErrMalformed, "attribute index %d duplicated or out of order", idx)
		}
		prev = idx
		if err := c.checkValue(a.Value); err != nil {
			return nil, err
		}
		d.Indices[idx] = struct{}{}
		d.Attributes = append(d.Attributes, shared.DisclosedAttribute{
			Index: idx,
			Value: append([]byte{}, a.Value...),
		})
	}

	for _, p := range w.Proofs {
		if p.Index >= uint32(c.opts.maxAttributes) || !d.Indices.Contains(int(p.Index)) {
			return nil, errors.Wrapf(ErrMalformed, "proof for undisclosed index %d", p.Index)
		}
		idx := int(p.Index)
		if _, ok := d.Proofs[idx]; ok {
			return nil, errors.Wrapf(ErrMalformed, "duplicate proof for index %d", idx)
		}
		if len(p.Steps) > merkle.MaxDepth {
			return nil, errors.Wrapf(ErrMalformed, "proof of %d steps exceeds %d", len(p.Steps), merkle.MaxDepth)
		}
		steps := make([]merkle.Step, len(p.Steps))
		for i, s := range p.Steps {
			steps[i] = merkle.Step{Sibling: s.Sibling, Left: s.Left}
		}
		d.Proofs[idx] = merkle.Proof{Steps: steps}
	}

	return d, nil
}
