package orders

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceValue tolerates both forms carts are known to send: a formatted
// string ("₱1,000.00") or a bare JSON number (500).
type PriceValue string

func (p *PriceValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceValue(s)
		return nil
	}
	*p = PriceValue(string(b))
	return nil
}

// ParsePrice strips currency formatting (symbol, thousands separators) and
// returns the numeric amount.
func ParsePrice(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("invalid price: %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price: %q", s)
	}
	return d, nil
}

// totalTolerance absorbs client-side rounding when comparing the submitted
// grand total against the recomputed one.
var totalTolerance = decimal.NewFromFloat(0.01)

// ComputeTotal recomputes the authoritative grand total from parsed line
// items and the shipping fee.
func ComputeTotal(items []LineInput, shippingFee decimal.Decimal) decimal.Decimal {
	total := shippingFee
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// TotalMatches reports whether the client-submitted total agrees with the
// recomputed one within the rounding tolerance.
func TotalMatches(computed, submitted decimal.Decimal) bool {
	return computed.Sub(submitted).Abs().LessThanOrEqual(totalTolerance)
}
