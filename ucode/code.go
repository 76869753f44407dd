// Package ucode implements prefix-free universal codes for non-negative integers: unary,
// Golomb, Rice, truncated binary and fixed-width binary.
//
// Codes are immutable values and safe for concurrent use. Every code reports the exact
// number of bits Encode would write through BitLength, without writing; the code selector
// relies on that equality.
package ucode

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
)

// Kind identifies a code family.
type Kind uint8

const (
	KindUnary           Kind = 0x1 // KindUnary is unary coding; Param selects the extension bit.
	KindGolomb          Kind = 0x2 // KindGolomb is Golomb coding; Param is the divisor.
	KindRice            Kind = 0x3 // KindRice is Rice coding; Param is the remainder width.
	KindTruncatedBinary Kind = 0x4 // KindTruncatedBinary is minimal binary; Param is the alphabet size.
	KindFixed           Kind = 0x5 // KindFixed is plain binary; Param is the width.
)

func (k Kind) String() string {
	switch k {
	case KindUnary:
		return "Unary"
	case KindGolomb:
		return "Golomb"
	case KindRice:
		return "Rice"
	case KindTruncatedBinary:
		return "TruncatedBinary"
	case KindFixed:
		return "Fixed"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k.String() == "Unknown" {
		return nil, fmt.Errorf("unknown code kind %d", uint8(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name, case-insensitively.
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindUnary, KindGolomb, KindRice, KindTruncatedBinary, KindFixed} {
		if strings.EqualFold(c.String(), string(text)) {
			*k = c
			return nil
		}
	}

	return fmt.Errorf("unknown code kind %q", text)
}

// Spec is the serializable identity of a code.
type Spec struct {
	Kind  Kind   `json:"kind"`
	Param uint64 `json:"param"`
}

func (s Spec) String() string {
	return fmt.Sprintf("%s(%d)", s.Kind, s.Param)
}

// Code is a prefix-free code over a subset of the non-negative integers.
type Code interface {
	// Encode writes n and returns the number of bits written.
	Encode(w bitio.BitWriter, n uint64) (uint64, error)
	// Decode reads one codeword.
	Decode(r bitio.BitReader) (uint64, error)
	// BitLength returns the bits Encode writes for n, or 0 when n is outside the domain.
	BitLength(n uint64) uint64
	// Max returns the largest encodable value and whether the domain is bounded.
	Max() (uint64, bool)
	// Spec returns the code identity.
	Spec() Spec
	// Equal reports whether other assigns the same codeword to every value.
	Equal(other Code) bool
}

// FromSpec builds the code described by s.
func FromSpec(s Spec) (Code, error) {
	switch s.Kind {
	case KindUnary:
		if s.Param > 1 {
			return nil, fmt.Errorf("unary extension %d: %w", s.Param, errs.ErrInvalidParameter)
		}

		return NewUnary(Extension(s.Param)), nil
	case KindGolomb:
		return NewGolomb(s.Param)
	case KindRice:
		if s.Param > math.MaxUint8 {
			return nil, fmt.Errorf("rice width %d: %w", s.Param, errs.ErrInvalidParameter)
		}

		return NewRice(uint8(s.Param))
	case KindTruncatedBinary:
		return NewTruncatedBinary(s.Param)
	case KindFixed:
		if s.Param > 64 {
			return nil, fmt.Errorf("fixed width %d: %w", s.Param, errs.ErrWidthRange)
		}

		return NewFixed(uint8(s.Param))
	default:
		return nil, fmt.Errorf("code kind %s: %w", s.Kind, errs.ErrInvalidParameter)
	}
}

// Canonical maps a spec to the representative of its equivalence class: Rice(b) is
// Golomb(2^b), Golomb(1) is one-extended unary, and TruncatedBinary(2^k) is Fixed(k).
func Canonical(s Spec) Spec {
	switch s.Kind {
	case KindRice:
		s = Spec{Kind: KindGolomb, Param: 1 << s.Param}
	case KindTruncatedBinary:
		if s.Param > 0 && s.Param&(s.Param-1) == 0 {
			s = Spec{Kind: KindFixed, Param: uint64(bits.TrailingZeros64(s.Param))}
		}
	}

	if s.Kind == KindGolomb && s.Param == 1 {
		return Spec{Kind: KindUnary, Param: uint64(OneExtended)}
	}

	return s
}

// Equal reports whether a and b produce identical codeword assignments.
func Equal(a, b Code) bool {
	if a == nil || b == nil {
		return a == b
	}

	return Canonical(a.Spec()) == Canonical(b.Spec())
}

// Encode writes n with c to a fresh byte slice and returns the bytes and bit length.
func Encode(c Code, n uint64) ([]byte, uint64, error) {
	w := bitio.NewByteWriter()
	defer w.Release()

	nbits, err := c.Encode(w, n)
	if err != nil {
		return nil, 0, err
	}

	out := append([]byte(nil), w.Bytes()...)

	return out, nbits, nil
}

// BitString renders the codeword of n as a string of '0' and '1'.
func BitString(c Code, n uint64) (string, error) {
	data, nbits, err := Encode(c, n)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(int(nbits))
	for i := range nbits {
		if data[i/8]&(0x80>>(i%8)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String(), nil
}

// InDomain reports whether c can encode n.
func InDomain(c Code, n uint64) bool {
	hi, _ := c.Max()
	return n <= hi
}

func errDecodedByte(v uint64) error {
	return errs.Domain("Extended.DecodeBytes", v, "decoded value exceeds a byte")
}
