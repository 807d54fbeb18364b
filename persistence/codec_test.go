package persistence

import (
	"bytes"
	"testing"

	"github.com/nullstyle/go-xdr/xdr3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/loquat/disclosing"
	"github.com/spacemeshos/loquat/field"
	"github.com/spacemeshos/loquat/hashing"
	"github.com/spacemeshos/loquat/issuing"
	"github.com/spacemeshos/loquat/shared"
	"github.com/spacemeshos/loquat/verifying"
)

var testAttributes = [][]byte{
	[]byte("name:Alice"),
	[]byte("age:30"),
	[]byte("country:NZ"),
	{},
	[]byte("email:alice@example.com"),
}

func testCredential(tb testing.TB, opts ...issuing.OptionFunc) (*shared.KeyPair, *shared.Credential) {
	kp, err := issuing.Keygen(opts...)
	require.NoError(tb, err)
	cred, err := issuing.Issue(kp, testAttributes, opts...)
	require.NoError(tb, err)
	return kp, cred
}

func testDisclosure(tb testing.TB, cred *shared.Credential, indices ...int) *shared.Disclosure {
	d, err := disclosing.DiscloseCredential(cred, indices)
	require.NoError(tb, err)
	return d
}

func testCodec(tb testing.TB, opts ...OptionFunc) *Codec {
	c, err := NewCodec(opts...)
	require.NoError(tb, err)
	return c
}

func encodeWire(tb testing.TB, v interface{}) []byte {
	var w bytes.Buffer
	_, err := xdr.Marshal(&w, v)
	require.NoError(tb, err)
	return w.Bytes()
}

func TestDisclosureRoundTrip(t *testing.T) {
	r := require.New(t)
	c := testCodec(t)
	kp, cred := testCredential(t)

	for _, indices := range [][]int{{0}, {3}, {1, 4}, {0, 1, 2, 3, 4}} {
		d := testDisclosure(t, cred, indices...)
		data, err := c.EncodeDisclosure(d)
		r.NoError(err)

		decoded, err := c.DecodeDisclosure(data)
		r.NoError(err)
		r.Equal(d, decoded)
		r.True(verifying.Verify(kp.Public, decoded))

		again, err := c.EncodeDisclosure(decoded)
		r.NoError(err)
		r.Equal(data, again, "encoding is canonical")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	r := require.New(t)
	c := testCodec(t)
	kp, cred := testCredential(t)

	data, err := c.EncodeCredential(cred)
	r.NoError(err)
	decoded, err := c.DecodeCredential(data)
	r.NoError(err)

	r.Equal(cred.Attributes, decoded.Attributes)
	r.Equal(cred.Signature, decoded.Signature)
	r.Equal(cred.Tree.Root(), decoded.Tree.Root())

	d := testDisclosure(t, decoded, 2, 4)
	r.True(verifying.Verify(kp.Public, d))
}

func TestCredentialRootCheck(t *testing.T) {
	r := require.New(t)
	c := testCodec(t)
	_, cred := testCredential(t)

	w := wireCredential{
		Hash:       hashing.Default,
		Attributes: shared.CopyAttributes(cred.Attributes),
		Signature:  toWireSignature(cred.Signature),
	}
	w.Attributes[0] = []byte("name:Bob")

	_, err := c.DecodeCredential(encodeWire(t, &w))
	r.ErrorIs(err, ErrMalformed)

	_, err = c.EncodeCredential(&shared.Credential{})
	r.ErrorIs(err, shared.ErrEmptyInput)
}

func TestKeyPairRoundTrip(t *testing.T) {
	r := require.New(t)
	c := testCodec(t)
	kp, _ := testCredential(t)

	data, err := c.EncodeKeyPair(kp)
	r.NoError(err)
	decoded, err := c.DecodeKeyPair(data)
	r.NoError(err)
	r.Equal(kp, decoded)

	forged := *kp
	forged.Public[0] ^= 1
	data, err = c.EncodeKeyPair(&forged)
	r.NoError(err)
	_, err = c.DecodeKeyPair(data)
	r.ErrorIs(err, ErrMalformed)
}

func TestPublicKeyRoundTrip(t *testing.T) {
	r := require.New(t)
	c := testCodec(t)
	kp, _ := testCredential(t)

	data, err := c.EncodePublicKey(kp.Public)
	r.NoError(err)
	pk, err := c.DecodePublicKey(data)
	r.NoError(err)
	r.Equal(kp.Public, pk)
}

func TestHashMismatch(t *testing.T) {
	r := require.New(t)
	sha3 := testCodec(t)
	sha256 := testCodec(t, WithOracle(hashing.MustNew(hashing.SHA256)))
	_, cred := testCredential(t)

	data, err := sha3.EncodeCredential(cred)
	r.NoError(err)
	_, err = sha256.DecodeCredential(data)

	var mismatch shared.HashMismatchError
	r.True(errors.As(err, &mismatch))
	r.Equal(hashing.SHA256, mismatch.Expected)
	r.Equal(hashing.SHA3_256, mismatch.Found)
}

func TestSignatureCanonicalSigma(t *testing.T) {
	r := require.New(t)
	c := testCodec(t)
	_, cred := testCredential(t)

	data, err := c.EncodeSignature(cred.Signature)
	r.NoError(err)
	r.Len(data, field.ElementSize+hashing.DigestSize)
	sig, err := c.DecodeSignature(data)
	r.NoError(err)
	r.Equal(cred.Signature, sig)

	// P itself and the all-ones value are not canonical.
	for _, sigma := range [][field.ElementSize]byte{
		{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	} {
		w := wireSignature{Sigma: sigma, MerkleRoot: cred.Signature.MerkleRoot}
		_, err := c.DecodeSignature(encodeWire(t, &w))
		r.ErrorIs(err, field.ErrOutOfRange)
	}

	_, err = c.DecodeSignature(data[:len(data)-1])
	r.ErrorIs(err, ErrMalformed)
	_, err = c.DecodeSignature(append(data, 0, 0, 0, 0))
	r.ErrorIs(err, ErrMalformed)
}

func TestDecodeDisclosureMalformed(t *testing.T) {
	_, cred := testCredential(t)
	d := testDisclosure(t, cred, 1, 2, 3)
	c := testCodec(t, WithLimits(8, 16))

	valid := func() *wireDisclosure {
		data, err := c.EncodeDisclosure(d)
		require.NoError(t, err)
		var w wireDisclosure
		require.NoError(t, unmarshal(data, &w))
		return &w
	}

	tt := []struct {
		name   string
		modify func(w *wireDisclosure)
	}{
		{"no attributes", func(w *wireDisclosure) {
			w.Attributes, w.Proofs = nil, nil
		}},
		{"duplicate index", func(w *wireDisclosure) {
			w.Attributes[1].Index = w.Attributes[0].Index
		}},
		{"unordered indices", func(w *wireDisclosure) {
			w.Attributes[0], w.Attributes[1] = w.Attributes[1], w.Attributes[0]
		}},
		{"index beyond limit", func(w *wireDisclosure) {
			w.Attributes[2].Index = 8
		}},
		{"value beyond limit", func(w *wireDisclosure) {
			w.Attributes[0].Value = make([]byte, 17)
		}},
		{"missing proof", func(w *wireDisclosure) {
			w.Proofs = w.Proofs[:2]
		}},
		{"proof without attribute", func(w *wireDisclosure) {
			w.Proofs[0].Index = 0
		}},
		{"duplicate proof", func(w *wireDisclosure) {
			w.Proofs[2] = w.Proofs[1]
		}},
		{"oversized proof", func(w *wireDisclosure) {
			w.Proofs[0].Steps = make([]wireStep, 63)
		}},
	}

	_, err := c.DecodeDisclosure(encodeWire(t, valid()))
	require.NoError(t, err)

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := valid()
			tc.modify(w)
			_, err := c.DecodeDisclosure(encodeWire(t, w))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLimits(t *testing.T) {
	r := require.New(t)
	_, cred := testCredential(t)

	data, err := testCodec(t).EncodeCredential(cred)
	r.NoError(err)
	_, err = testCodec(t, WithLimits(4, 64)).DecodeCredential(data)
	r.ErrorIs(err, ErrMalformed)
	_, err = testCodec(t, WithLimits(5, 8)).DecodeCredential(data)
	r.ErrorIs(err, ErrMalformed)
	_, err = testCodec(t, WithLimits(5, 64)).DecodeCredential(data)
	r.NoError(err)

	_, err = NewCodec(WithLimits(0, 1))
	r.Error(err)
	_, err = NewCodec(WithLimits(1, 1<<20))
	r.Error(err)
}
