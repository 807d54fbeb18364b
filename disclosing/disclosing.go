// Package disclosing implements the holder role: turning a signed credential into a
// presentation that reveals only chosen attributes.
package disclosing

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/merkle"
	"github.com/spacemeshos/loquat/shared"
)

// Disclose reveals the attributes at indices, each paired with its inclusion proof, and
// bundles them with the unchanged signature. Indices must be a non-empty subset of
// [0, len(attributes)); duplicates are ignored.
func Disclose(tree *merkle.Tree, attributes [][]byte, sig shared.Signature, indices []int, opts ...OptionFunc) (*shared.Disclosure, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	if len(indices) == 0 {
		return nil, shared.ErrEmptyDisclosure
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(attributes) {
			return nil, &shared.IndexError{Index: idx, Count: len(attributes), Err: shared.ErrInvalidIndex}
		}
	}

	if tree == nil || tree.Len() != len(attributes) {
		return nil, errors.Wrap(shared.ErrTreeMismatch, "attribute count differs from tree")
	}
	root := tree.Root()
	if !root.Equal(sig.MerkleRoot) {
		return nil, errors.Wrap(shared.ErrTreeMismatch, "tree root differs from signed root")
	}

	set := shared.SetOf(indices...)
	d := &shared.Disclosure{
		Indices:    set,
		Attributes: make([]shared.DisclosedAttribute, 0, len(set)),
		Proofs:     make(map[int]merkle.Proof, len(set)),
		Signature:  sig,
	}
	for _, idx := range set.AsSortedSlice() {
		proof, err := tree.Prove(idx)
		if err != nil {
			return nil, err
		}
		if !merkle.Verify(tree.Oracle(), root, idx, attributes[idx], proof) {
			return nil, errors.Wrapf(shared.ErrTreeMismatch, "attribute %d is not committed in tree", idx)
		}
		d.Attributes = append(d.Attributes, shared.DisclosedAttribute{
			Index: idx,
			Value: append([]byte{}, attributes[idx]...),
		})
		d.Proofs[idx] = proof
	}

	options.logger.Debug("disclosing: created disclosure",
		zap.Ints("indices", set.AsSortedSlice()),
		zap.Int("attributes", len(attributes)),
		zap.Stringer("root", root),
	)
	return d, nil
}

// DiscloseCredential is Disclose over a stored credential.
func DiscloseCredential(cred *shared.Credential, indices []int, opts ...OptionFunc) (*shared.Disclosure, error) {
	if cred == nil {
		return nil, errors.Wrap(shared.ErrTreeMismatch, "nil credential")
	}
	return Disclose(cred.Tree, cred.Attributes, cred.Signature, indices, opts...)
}
