// Package verifying implements the verifier role.
//
// Verification is a pure predicate: every cryptographic mismatch collapses to false and
// callers are never told which check failed. The reason is only logged at debug level.
package verifying

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/loquat/merkle"
	"github.com/spacemeshos/loquat/shared"
)

type ProofVerifier struct {
	opts *option
}

// NewProofVerifier creates a verifier. It holds no state beyond its options and is safe
// for concurrent use.
func NewProofVerifier(opts ...OptionFunc) (*ProofVerifier, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &ProofVerifier{opts: options}, nil
}

// Verify reports whether d is a valid disclosure under the issuer key pk.
func Verify(pk shared.PublicKey, d *shared.Disclosure, opts ...OptionFunc) bool {
	v, err := NewProofVerifier(opts...)
	if err != nil {
		return false
	}
	return v.Verify(pk, d)
}

// Verify recovers sk' = sigma - H(root), requires H(sk') == pk, and checks every
// disclosed attribute against the signed root.
func (v *ProofVerifier) Verify(pk shared.PublicKey, d *shared.Disclosure) bool {
	if reason := v.check(pk, d); reason != "" {
		v.opts.logger.Debug("verifying: disclosure rejected", zap.String("reason", reason))
		return false
	}
	return true
}

func (v *ProofVerifier) check(pk shared.PublicKey, d *shared.Disclosure) string {
	if d == nil {
		return "nil disclosure"
	}
	if len(d.Indices) == 0 {
		return "no disclosed indices"
	}
	if len(d.Attributes) != len(d.Indices) || len(d.Proofs) != len(d.Indices) {
		return "indices, attributes and proofs differ in size"
	}
	prev := -1
	for _, a := range d.Attributes {
		if a.Index <= prev || !d.Indices.Contains(a.Index) {
			return "attributes not ordered by disclosed index"
		}
		prev = a.Index
	}

	o := v.opts.oracle
	root := d.Signature.MerkleRoot
	h := o.Message(root[:])
	secret := d.Signature.Sigma.Sub(h)
	if !o.PublicKey(secret).Equal(pk) {
		return "recovered key does not match public key"
	}

	for _, a := range d.Attributes {
		proof, ok := d.Proofs[a.Index]
		if !ok {
			return "missing proof"
		}
		if !merkle.Verify(o, root, a.Index, a.Value, proof) {
			return "inclusion proof failed"
		}
	}
	return ""
}

// Item is one disclosure of a batch together with the key it claims.
type Item struct {
	PublicKey  shared.PublicKey
	Disclosure *shared.Disclosure
}

// VerifyBatch verifies items as independent tasks, at most the configured number of
// workers at a time. results[i] belongs to items[i]. An error is returned only when ctx
// is done before all items were verified.
func (v *ProofVerifier) VerifyBatch(ctx context.Context, items []Item) ([]bool, error) {
	results := make([]bool, len(items))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(v.opts.workers)
	scheduled := 0
	for ; scheduled < len(items); scheduled++ {
		if egCtx.Err() != nil {
			break
		}
		i := scheduled
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = v.Verify(items[i].PublicKey, items[i].Disclosure)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// a complete result set is kept even if ctx ends after the last item
	if scheduled < len(items) {
		return nil, ctx.Err()
	}

	v.opts.logger.Debug("verifying: batch completed", zap.Int("items", len(items)))
	return results, nil
}

// VerifyBatch is ProofVerifier.VerifyBatch with a verifier built from opts.
func VerifyBatch(ctx context.Context, items []Item, opts ...OptionFunc) ([]bool, error) {
	v, err := NewProofVerifier(opts...)
	if err != nil {
		return nil, err
	}
	return v.VerifyBatch(ctx, items)
}
