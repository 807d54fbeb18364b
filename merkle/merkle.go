// Package merkle commits an ordered sequence of values to a single root and produces
// and checks per-leaf inclusion proofs.
//
// Trees are built by github.com/spacemeshos/merkle-tree over leaf hashes, with the
// oracle's node hash as the parent function. Padding rule: whenever a layer ends with an
// unpaired node, that node is paired with the all-zero padding value. Leaves are oracle
// leaf digests, so no value can be proven at a padded position.
package merkle

import (
	"github.com/pkg/errors"
	merkletree "github.com/spacemeshos/merkle-tree"

	"github.com/spacemeshos/loquat/hashing"
)

// MaxDepth bounds the length of a proof accepted by Verify.
const MaxDepth = 62

var (
	ErrEmptyInput      = errors.New("merkle: at least one leaf is required")
	ErrIndexOutOfRange = errors.New("merkle: index out of range")
)

type Tree struct {
	oracle hashing.Oracle
	leaves [][]byte
	root   hashing.Digest
	depth  int
}

// parentFunc adapts the oracle's node hash to the tree builder.
func parentFunc(o hashing.Oracle) func(lChild, rChild []byte) []byte {
	return func(lChild, rChild []byte) []byte {
		var l, r hashing.Digest
		copy(l[:], lChild)
		copy(r[:], rChild)
		d := o.Node(l, r)
		return d[:]
	}
}

// rootAndProof builds the tree over leaves and returns its root and the sibling path
// of the leaf at index, bottom-up.
func rootAndProof(o hashing.Oracle, leaves [][]byte, index int) (hashing.Digest, [][]byte, error) {
	tree, err := merkletree.NewTreeBuilder().
		WithHashFunc(parentFunc(o)).
		WithLeavesToProve(map[uint64]bool{uint64(index): true}).
		Build()
	if err != nil {
		return hashing.Digest{}, nil, err
	}
	for _, leaf := range leaves {
		if err := tree.AddLeaf(leaf); err != nil {
			return hashing.Digest{}, nil, err
		}
	}

	r, proof := tree.RootAndProof()
	var root hashing.Digest
	copy(root[:], r)
	siblings := make([][]byte, 0, len(proof))
	for _, n := range proof {
		siblings = append(siblings, n)
	}
	return root, siblings, nil
}

// Build hashes every value into a leaf and commits to them.
func Build(o hashing.Oracle, values [][]byte) (*Tree, error) {
	if len(values) == 0 {
		return nil, ErrEmptyInput
	}

	leaves := make([][]byte, len(values))
	for i, v := range values {
		d := o.Leaf(v)
		leaves[i] = d[:]
	}

	root, proof, err := rootAndProof(o, leaves, 0)
	if err != nil {
		return nil, errors.Wrap(err, "merkle: failed to build tree")
	}
	return &Tree{oracle: o, leaves: leaves, root: root, depth: len(proof)}, nil
}

func (t *Tree) Root() hashing.Digest {
	return t.root
}

// Len returns the number of committed values, padding excluded.
func (t *Tree) Len() int {
	return len(t.leaves)
}

// Depth returns the length of every proof of the tree.
func (t *Tree) Depth() int {
	return t.depth
}

func (t *Tree) Oracle() hashing.Oracle {
	return t.oracle
}

// Prove returns the sibling path from the leaf at index up to the root.
func (t *Tree) Prove(index int) (Proof, error) {
	if index < 0 || index >= len(t.leaves) {
		return Proof{}, errors.Wrapf(ErrIndexOutOfRange, "index: %d, leaves: %d", index, len(t.leaves))
	}

	root, siblings, err := rootAndProof(t.oracle, t.leaves, index)
	if err != nil {
		return Proof{}, errors.Wrap(err, "merkle: failed to generate proof")
	}
	if root != t.root || len(siblings) != t.depth {
		return Proof{}, errors.Errorf("merkle: inconsistent proof for index %d", index)
	}

	steps := make([]Step, len(siblings))
	for i, s := range siblings {
		copy(steps[i].Sibling[:], s)
		steps[i].Left = (index>>uint(i))&1 == 1
	}
	return Proof{Steps: steps}, nil
}

// Verify reports whether value sits at index under root. The side flags of the proof
// must spell index in binary, least significant level first, so a proof can only be
// used at the position it was made for. Verify never panics on malformed input.
func Verify(o hashing.Oracle, root hashing.Digest, index int, value []byte, p Proof) bool {
	if index < 0 || len(p.Steps) > MaxDepth || index>>uint(len(p.Steps)) != 0 {
		return false
	}
	for i, s := range p.Steps {
		if s.Left != ((index>>uint(i))&1 == 1) {
			return false
		}
	}

	leaf := o.Leaf(value)
	// a tree of a single leaf has the leaf as its root
	if len(p.Steps) == 0 {
		return leaf.Equal(root)
	}

	siblings := make([][]byte, len(p.Steps))
	for i := range p.Steps {
		siblings[i] = p.Steps[i].Sibling[:]
	}
	valid, err := merkletree.ValidatePartialTree(
		[]uint64{uint64(index)},
		[][]byte{leaf[:]},
		siblings,
		root[:],
		parentFunc(o),
	)
	return err == nil && valid
}
