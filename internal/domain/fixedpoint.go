// Package domain contains the value types shared by the range-bar pipeline:
// the fixed-point decimal substrate, aggregated trade records and range bars.
package domain

import (
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// FixedPointDigits is the number of fractional digits every FixedPoint carries.
	FixedPointDigits = 8
	// FixedPointScale is the implicit denominator: a FixedPoint holds value*10^8.
	FixedPointScale = 100_000_000

	bpsDenominator = 10_000
)

var (
	// ErrEmptyDecimal is returned when parsing an empty string.
	ErrEmptyDecimal = errors.New("empty decimal")
	// ErrBadDecimal is returned for any character outside sign, digits and one decimal point.
	ErrBadDecimal = errors.New("illegal character in decimal")
	// ErrTooManyFractionalDigits is returned instead of silently truncating input
	// beyond eight fractional digits.
	ErrTooManyFractionalDigits = errors.New("more than 8 fractional digits")
	// ErrOverflow is returned when a value or intermediate result leaves the
	// representable range.
	ErrOverflow = errors.New("fixed-point overflow")
)

// FixedPoint is a signed decimal with exactly eight fractional digits,
// stored as scaled units in an int64. All arithmetic is exact integer
// arithmetic; products use 128-bit intermediates and truncate toward zero.
type FixedPoint int64

// FixedPointFromScaled wraps an already-scaled value. The caller is trusted.
func FixedPointFromScaled(v int64) FixedPoint {
	return FixedPoint(v)
}

// Scaled returns the raw scaled units.
func (f FixedPoint) Scaled() int64 {
	return int64(f)
}

// ParseFixedPoint parses a decimal string with optional sign, optional integer
// part and up to eight fractional digits. Exponents, whitespace and more than
// eight fractional digits are rejected.
func ParseFixedPoint(s string) (FixedPoint, error) {
	if s == "" {
		return 0, ErrEmptyDecimal
	}

	neg := false
	i := 0
	switch s[0] {
	case '+':
		i++
	case '-':
		neg = true
		i++
	}
	if i == len(s) {
		return 0, errors.Wrapf(ErrBadDecimal, "parse %q", s)
	}

	var mag uint64
	intDigits := 0
	fracDigits := -1 // -1 until the decimal point is seen
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if fracDigits >= 0 {
				if fracDigits == FixedPointDigits {
					return 0, errors.Wrapf(ErrTooManyFractionalDigits, "parse %q", s)
				}
				fracDigits++
			} else {
				intDigits++
			}
			hi, lo := bits.Mul64(mag, 10)
			lo, carry := bits.Add64(lo, uint64(c-'0'), 0)
			if hi != 0 || carry != 0 {
				return 0, errors.Wrapf(ErrOverflow, "parse %q", s)
			}
			mag = lo
		case c == '.':
			if fracDigits >= 0 {
				return 0, errors.Wrapf(ErrBadDecimal, "parse %q", s)
			}
			fracDigits = 0
		default:
			return 0, errors.Wrapf(ErrBadDecimal, "parse %q", s)
		}
	}
	if intDigits == 0 && fracDigits <= 0 {
		return 0, errors.Wrapf(ErrBadDecimal, "parse %q", s)
	}

	// Scale the magnitude up to eight fractional digits.
	if fracDigits < 0 {
		fracDigits = 0
	}
	for d := fracDigits; d < FixedPointDigits; d++ {
		hi, lo := bits.Mul64(mag, 10)
		if hi != 0 {
			return 0, errors.Wrapf(ErrOverflow, "parse %q", s)
		}
		mag = lo
	}

	return fromMagnitude(mag, neg, s)
}

// fromMagnitude converts an unsigned magnitude of scaled units into a signed
// FixedPoint, reporting overflow against the int64 range.
func fromMagnitude(mag uint64, neg bool, what string) (FixedPoint, error) {
	if neg {
		if mag > uint64(math.MaxInt64)+1 {
			return 0, errors.Wrapf(ErrOverflow, "%s", what)
		}
		if mag == uint64(math.MaxInt64)+1 {
			return FixedPoint(math.MinInt64), nil
		}
		return FixedPoint(-int64(mag)), nil
	}
	if mag > uint64(math.MaxInt64) {
		return 0, errors.Wrapf(ErrOverflow, "%s", what)
	}
	return FixedPoint(int64(mag)), nil
}

// magnitude returns the absolute scaled units; correct for MinInt64 too.
func (f FixedPoint) magnitude() uint64 {
	mag := uint64(f)
	if f < 0 {
		mag = -mag
	}
	return mag
}

// String formats the value canonically: no exponent, trailing fractional
// zeros trimmed, "0" for zero. parse(format(x)) == x for every x.
func (f FixedPoint) String() string {
	if f == 0 {
		return "0"
	}
	mag := f.magnitude()
	intPart := mag / FixedPointScale
	frac := mag % FixedPointScale

	var b strings.Builder
	if f < 0 {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatUint(intPart, 10))
	if frac != 0 {
		fracStr := strconv.FormatUint(frac, 10)
		for len(fracStr) < FixedPointDigits {
			fracStr = "0" + fracStr
		}
		b.WriteByte('.')
		b.WriteString(strings.TrimRight(fracStr, "0"))
	}
	return b.String()
}

// Add returns f+o, failing with ErrOverflow instead of wrapping around.
func (f FixedPoint) Add(o FixedPoint) (FixedPoint, error) {
	sum := f + o
	if (o > 0 && sum < f) || (o < 0 && sum > f) {
		return 0, errors.Wrapf(ErrOverflow, "%s + %s", f, o)
	}
	return sum, nil
}

// Sub returns f-o, failing with ErrOverflow instead of wrapping around.
func (f FixedPoint) Sub(o FixedPoint) (FixedPoint, error) {
	diff := f - o
	if (o < 0 && diff < f) || (o > 0 && diff > f) {
		return 0, errors.Wrapf(ErrOverflow, "%s - %s", f, o)
	}
	return diff, nil
}

// MulBps computes f*bps/10_000 with a 128-bit intermediate product,
// truncating toward zero. Used to derive threshold offsets from a bar open.
func (f FixedPoint) MulBps(bps uint32) (FixedPoint, error) {
	hi, lo := bits.Mul64(f.magnitude(), uint64(bps))
	if hi >= bpsDenominator {
		return 0, errors.Wrapf(ErrOverflow, "%s * %d bps", f, bps)
	}
	q, _ := bits.Div64(hi, lo, bpsDenominator)
	return fromMagnitude(q, f < 0, "bps product")
}

// Mul computes the fixed-point product f*o (for example price*volume) with a
// 128-bit intermediate, truncating toward zero.
func (f FixedPoint) Mul(o FixedPoint) (FixedPoint, error) {
	hi, lo := bits.Mul64(f.magnitude(), o.magnitude())
	if hi >= FixedPointScale {
		return 0, errors.Wrapf(ErrOverflow, "%s * %s", f, o)
	}
	q, _ := bits.Div64(hi, lo, FixedPointScale)
	return fromMagnitude(q, (f < 0) != (o < 0), "product")
}

// Decimal bridges into shopspring/decimal for the analysis layers.
func (f FixedPoint) Decimal() decimal.Decimal {
	return decimal.New(int64(f), -FixedPointDigits)
}

// FixedPointFromDecimal converts a decimal back, rejecting values that do not
// fit the eight-digit scale or the int64 range.
func FixedPointFromDecimal(d decimal.Decimal) (FixedPoint, error) {
	scaled := d.Mul(decimal.New(1, FixedPointDigits))
	if !scaled.IsInteger() {
		return 0, errors.Wrapf(ErrTooManyFractionalDigits, "decimal %s", d)
	}
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, errors.Wrapf(ErrOverflow, "decimal %s", d)
	}
	return FixedPoint(bi.Int64()), nil
}

// MarshalJSON emits the canonical decimal string.
func (f FixedPoint) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(f.String())), nil
}

// UnmarshalJSON accepts a quoted canonical decimal string.
func (f *FixedPoint) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.Wrap(ErrBadDecimal, "fixed-point JSON value must be a string")
	}
	v, err := ParseFixedPoint(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}
