// Package issuing implements the issuer role: key generation and signing of attribute sets.
package issuing

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/field"
	"github.com/spacemeshos/loquat/merkle"
	"github.com/spacemeshos/loquat/shared"
)

var ErrKeyMismatch = errors.New("public key does not match secret key")

// Keygen draws a secret uniformly from [0, P) and derives its public key.
func Keygen(opts ...OptionFunc) (*shared.KeyPair, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	secret, err := field.Random(options.random)
	if err != nil {
		return nil, errors.Wrap(err, "key generation failed")
	}

	kp := &shared.KeyPair{
		Secret: secret,
		Public: options.oracle.PublicKey(secret),
	}
	options.logger.Debug("issuing: generated key pair",
		zap.String("hash", options.oracle.Name()),
		zap.Stringer("public", kp.Public),
	)
	return kp, nil
}

// Sign commits the attributes to a Merkle tree and binds its root to the secret:
// sigma = secret + H(root) mod P. The tree is returned for the holder, who needs it
// to build disclosures.
func Sign(secret field.Element, attributes [][]byte, opts ...OptionFunc) (*shared.Signature, *merkle.Tree, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, nil, err
	}

	tree, err := merkle.Build(options.oracle, attributes)
	if err != nil {
		return nil, nil, err
	}

	root := tree.Root()
	sig := &shared.Signature{
		Sigma:      secret.Add(options.oracle.Message(root[:])),
		MerkleRoot: root,
	}
	options.logger.Debug("issuing: signed attributes",
		zap.Int("attributes", tree.Len()),
		zap.Stringer("root", root),
	)
	return sig, tree, nil
}

// Issue signs the attributes with kp and packages everything the holder keeps.
func Issue(kp *shared.KeyPair, attributes [][]byte, opts ...OptionFunc) (*shared.Credential, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	if !options.oracle.PublicKey(kp.Secret).Equal(kp.Public) {
		return nil, ErrKeyMismatch
	}

	sig, tree, err := Sign(kp.Secret, attributes, opts...)
	if err != nil {
		return nil, err
	}

	return &shared.Credential{
		Attributes: shared.CopyAttributes(attributes),
		Signature:  *sig,
		Tree:       tree,
	}, nil
}
