package money

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
)

// Cents is an amount of minor currency units. All arithmetic stays in this type.
type Cents int64

const Zero Cents = 0

// MaxAmount is the largest magnitude any single amount may reach: one trillion major units.
const MaxAmount Cents = 100_000_000_000_000

// ErrOutOfRange reports arithmetic that would leave [-MaxAmount, MaxAmount].
var ErrOutOfRange = errors.New("amount out of range")

var (
	hundred    = decimal.NewFromInt(100)
	maxDecimal = decimal.NewFromInt(int64(MaxAmount))
)

// Int64 returns the raw count of minor units.
func (c Cents) Int64() int64 {
	return int64(c)
}

// Decimal returns the amount in major units as an exact decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String renders the amount as a plain two-place decimal, e.g. "12.50".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (c Cents) IsPositive() bool {
	return c > 0
}

// IsNegative reports whether the amount is below zero.
func (c Cents) IsNegative() bool {
	return c < 0
}

// Sum adds every amount.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}

// Max returns the larger amount.
func Max(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller amount.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

// SubFloor returns a-b floored at zero.
func SubFloor(a, b Cents) Cents {
	return Max(a-b, Zero)
}

// MulQty multiplies a unit price by a quantity. Callers bound both operands first;
// use MulQtyChecked on untrusted input.
func MulQty(unit Cents, qty int) Cents {
	return unit * Cents(qty)
}

// MulQtyChecked is MulQty that fails with ErrOutOfRange instead of wrapping.
func MulQtyChecked(unit Cents, qty int) (Cents, error) {
	if qty < 0 || !InRange(unit) {
		return 0, ErrOutOfRange
	}
	if qty > 0 && unit.abs() > MaxAmount/Cents(qty) {
		return 0, ErrOutOfRange
	}
	return unit * Cents(qty), nil
}

// SumChecked is Sum that fails with ErrOutOfRange once the running total leaves range.
func SumChecked(amounts ...Cents) (Cents, error) {
	var total Cents
	for _, a := range amounts {
		if !InRange(a) {
			return 0, ErrOutOfRange
		}
		total += a
		if !InRange(total) {
			return 0, ErrOutOfRange
		}
	}
	return total, nil
}

// InRange reports whether |c| <= MaxAmount.
func InRange(c Cents) bool {
	return c >= -MaxAmount && c <= MaxAmount
}

func (c Cents) abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// ToDecimalAmount converts cents to major units for display only.
func ToDecimalAmount(c Cents) float64 {
	return float64(c) / 100.0
}

// ParseToCents reads user-typed decimal input such as "$1,234.50", "1.234,50" or "12".
// Currency symbols, a leading or trailing ISO code and whitespace are ignored; the result
// is rounded half away from zero and must lie within MaxAmount.
func ParseToCents(text string) (Cents, error) {
	cleaned, err := cleanAmount(text)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, invalidAmount(text)
	}
	minor := d.Mul(hundred).Round(0)
	if minor.Abs().GreaterThan(maxDecimal) {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("%q is out of range", text)).
			WithDetails(map[string]any{"max_amount": MaxAmount.String()})
	}
	return Cents(minor.IntPart()), nil
}

func cleanAmount(text string) (string, error) {
	trimmed, ok := stripCurrencyCode(strings.TrimSpace(text))
	if !ok {
		return "", invalidAmount(text)
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch {
		case unicode.IsSpace(r), unicode.Is(unicode.Sc, r), r == '\'':
			continue
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		default:
			return "", invalidAmount(text)
		}
	}

	cleaned := b.String()
	digits := strings.TrimPrefix(cleaned, "-")
	if digits == "" || strings.Trim(digits, ".,") == "" {
		return "", invalidAmount(text)
	}
	return normalizeSeparators(cleaned), nil
}

// stripCurrencyCode removes one ISO 4217 code at either end of the text, e.g. "USD 12" or
// "12,50 EUR". Any other letters make the text invalid.
func stripCurrencyCode(text string) (string, bool) {
	isLetter := unicode.IsLetter
	lead := strings.IndexFunc(text, func(r rune) bool { return !isLetter(r) })
	if lead < 0 {
		lead = len(text)
	}
	if lead > 0 {
		if _, err := currency.ParseISO(text[:lead]); err != nil {
			return "", false
		}
		text = text[lead:]
	}
	tail := strings.LastIndexFunc(text, func(r rune) bool { return !isLetter(r) }) + 1
	if tail < len(text) {
		if _, err := currency.ParseISO(text[tail:]); err != nil {
			return "", false
		}
		text = text[:tail]
	}
	if strings.IndexFunc(text, isLetter) >= 0 {
		return "", false
	}
	return text, true
}

// normalizeSeparators resolves the decimal mark. When both '.' and ',' appear the
// right-most one is the decimal mark. A lone separator followed by exactly three
// digits is treated as a thousands separator unless the integer part is zero.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastDot < 0 && lastComma < 0:
		return s
	}

	sep := "."
	idx := lastDot
	if lastComma >= 0 {
		sep = ","
		idx = lastComma
	}
	lead := strings.TrimPrefix(s[:idx], "-")
	if strings.Count(s, sep) > 1 || (len(s)-idx-1 == 3 && lead != "" && lead != "0") {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

func invalidAmount(text string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("%q is not a valid amount", text))
}

// FormatAsCurrency renders cents using the locale's number formatting and the currency symbol.
func FormatAsCurrency(c Cents, currencyCode, locale string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
	if err != nil {
		return "", fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", locale, err)
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(unit.Amount(ToDecimalAmount(c)))), nil
}
