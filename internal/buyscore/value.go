package buyscore

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel is the value in millions assigned to unparseable market values.
// It exceeds any realistic budget, so unknown values always fail the cut.
const Sentinel = 1e9

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// unit suffixes, longest first so "mn" wins over "m".
var suffixes = []struct {
	text  string
	scale func(decimal.Decimal) decimal.Decimal
}{
	{"millions", same},
	{"million", same},
	{"thousand", divThousand},
	{"bn", mulThousand},
	{"mn", same},
	{"m", same},
	{"k", divThousand},
	{"b", mulThousand},
}

func same(d decimal.Decimal) decimal.Decimal        { return d }
func divThousand(d decimal.Decimal) decimal.Decimal { return d.Div(thousand) }
func mulThousand(d decimal.Decimal) decimal.Decimal { return d.Mul(thousand) }

// ParseValue converts a market value string into millions. A millions suffix
// is taken as-is, a thousands suffix is divided by 1000 and a bare number is
// read in currency units and divided by one million. Currency symbols,
// thousands separators and surrounding whitespace are ignored. ok is false
// for empty, negative or otherwise unparseable input.
func ParseValue(s string) (millions float64, ok bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("£", "", "€", "", "$", "", ",", "", " ", "").Replace(v)
	if v == "" {
		return 0, false
	}

	scale := func(d decimal.Decimal) decimal.Decimal { return d.Div(million) }
	for _, sf := range suffixes {
		if strings.HasSuffix(v, sf.text) {
			v = strings.TrimSuffix(v, sf.text)
			scale = sf.scale
			break
		}
	}

	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return scale(d).InexactFloat64(), true
}

// ValueOrSentinel is ParseValue with unknown values mapped to Sentinel.
func ValueOrSentinel(s string) float64 {
	if m, ok := ParseValue(s); ok {
		return m
	}
	return Sentinel
}
