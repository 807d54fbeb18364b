// Package field implements arithmetic in the prime field of order P = 2^127 - 1.
//
// Elements are held in two 64-bit limbs and are always reduced: every constructor
// reduces its input and every operation returns a value in [0, P).
package field

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"math/big"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// ElementSize is the size in bytes of the canonical big-endian encoding.
	ElementSize = 16

	mask63 = 1<<63 - 1

	pHi = mask63
	pLo = 1<<64 - 1
)

var (
	ErrOutOfRange  = errors.New("field: value out of range")
	ErrZeroInverse = errors.New("field: zero has no inverse")
)

var (
	Zero = Element{}
	One  = Element{lo: 1}
)

// Element is an integer in [0, P).
type Element struct {
	hi, lo uint64
}

// Modulus returns P as a big integer.
func Modulus() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 127)
	return p.Sub(p, big.NewInt(1))
}

func FromUint64(v uint64) Element {
	return Element{lo: v}
}

// Reduce reduces an arbitrary 128-bit value, given as high and low limbs, modulo P.
func Reduce(hi, lo uint64) Element {
	// x = (x >> 127) * 2^127 + (x & P) and 2^127 = 1 (mod P).
	lo, c := bits.Add64(lo, hi>>63, 0)
	hi = hi&mask63 + c
	return conditionalSubtract(hi, lo)
}

// conditionalSubtract maps a value in [0, 2P] into [0, P).
func conditionalSubtract(hi, lo uint64) Element {
	l, b := bits.Sub64(lo, pLo, 0)
	h, b := bits.Sub64(hi, pHi, b)
	m := b - 1 // all ones when no borrow, i.e. value >= P
	return Element{
		hi: h&m | hi&^m,
		lo: l&m | lo&^m,
	}
}

// FromBytes interprets b as a big-endian integer of any length and reduces it modulo P.
func FromBytes(b []byte) Element {
	acc := Zero
	for len(b) > 0 {
		n := len(b) % 8
		if n == 0 {
			n = 8
		}
		var w uint64
		for _, c := range b[:n] {
			w = w<<8 | uint64(c)
		}
		acc = acc.Mul(shift(n)).Add(FromUint64(w))
		b = b[n:]
	}
	return acc
}

// shift returns 2^(8n) for 1 <= n <= 8.
func shift(n int) Element {
	if n == 8 {
		return Element{hi: 1}
	}
	return Element{lo: 1 << (8 * uint(n))}
}

// FromCanonicalBytes decodes exactly ElementSize big-endian bytes. Unlike FromBytes it
// does not reduce: values >= P are rejected with ErrOutOfRange.
func FromCanonicalBytes(b []byte) (Element, error) {
	if len(b) != ElementSize {
		return Zero, errors.Errorf("field: invalid encoding length; expected: %d, given: %d", ElementSize, len(b))
	}
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	if hi > pHi || (hi == pHi && lo == pLo) {
		return Zero, errors.Wrapf(ErrOutOfRange, "%x", b)
	}
	return Element{hi: hi, lo: lo}, nil
}

// Random draws an element uniformly from [0, P) by rejection sampling. A nil reader
// means crypto/rand.Reader.
func Random(r io.Reader) (Element, error) {
	if r == nil {
		r = rand.Reader
	}
	var buf [ElementSize]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Zero, errors.Wrap(err, "field: failed to read randomness")
		}
		buf[0] &= 0x7f
		e, err := FromCanonicalBytes(buf[:])
		if err == nil {
			return e, nil
		}
		// the single 127-bit string equal to P; draw again
	}
}

func (e Element) Add(o Element) Element {
	lo, c := bits.Add64(e.lo, o.lo, 0)
	hi, _ := bits.Add64(e.hi, o.hi, c)
	return Reduce(hi, lo)
}

// Sub returns e - o mod P. A borrow is corrected by adding P back before the
// result is returned.
func (e Element) Sub(o Element) Element {
	lo, b := bits.Sub64(e.lo, o.lo, 0)
	hi, b := bits.Sub64(e.hi, o.hi, b)
	m := -b
	lo, c := bits.Add64(lo, pLo&m, 0)
	hi, _ = bits.Add64(hi, pHi&m, c)
	return Element{hi: hi, lo: lo}
}

func (e Element) Neg() Element {
	return Zero.Sub(e)
}

func (e Element) Mul(o Element) Element {
	h00, l00 := bits.Mul64(e.lo, o.lo)
	h01, l01 := bits.Mul64(e.lo, o.hi)
	h10, l10 := bits.Mul64(e.hi, o.lo)
	h11, l11 := bits.Mul64(e.hi, o.hi)

	r0 := l00
	r1, c := bits.Add64(h00, l01, 0)
	r2, c2 := bits.Add64(h01, l11, c)
	r3 := h11 + c2
	r1, c = bits.Add64(r1, l10, 0)
	r2, c2 = bits.Add64(r2, h10, c)
	r3 += c2

	// The product is below 2^254; fold the upper 127 bits onto the lower 127.
	lowHi, lowLo := r1&mask63, r0
	upLo := r1>>63 | r2<<1
	upHi := r2>>63 | r3<<1

	lo, c := bits.Add64(lowLo, upLo, 0)
	hi, _ := bits.Add64(lowHi, upHi, c)
	return Reduce(hi, lo)
}

// Pow returns e^exp mod P, treating exp as an integer in [0, P).
func (e Element) Pow(exp Element) Element {
	res := One
	for _, limb := range [2]uint64{exp.hi, exp.lo} {
		for i := 63; i >= 0; i-- {
			res = res.Mul(res)
			if limb>>uint(i)&1 == 1 {
				res = res.Mul(e)
			}
		}
	}
	return res
}

// Inverse returns e^-1 computed as e^(P-2).
func (e Element) Inverse() (Element, error) {
	if e.IsZero() {
		return Zero, ErrZeroInverse
	}
	return e.Pow(Element{hi: pHi, lo: pLo - 2}), nil
}

func (e Element) IsZero() bool {
	return e.hi|e.lo == 0
}

func (e Element) Equal(o Element) bool {
	return (e.hi^o.hi)|(e.lo^o.lo) == 0
}

// Bytes returns the canonical big-endian encoding.
func (e Element) Bytes() [ElementSize]byte {
	var b [ElementSize]byte
	binary.BigEndian.PutUint64(b[:8], e.hi)
	binary.BigEndian.PutUint64(b[8:], e.lo)
	return b
}

func (e Element) Big() *big.Int {
	b := e.Bytes()
	return new(big.Int).SetBytes(b[:])
}

func (e Element) String() string {
	return e.Big().String()
}
