package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var nonPriceChars = regexp.MustCompile(`[^0-9,]`)

// ParsePrice converts a localized currency string ("R$ 1.234,56") into a
// Price. The locale uses a comma as the decimal separator and dots as
// thousands separators. Strings that do not parse are rejected, never zeroed.
func ParsePrice(text string) (Price, error) {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return Price{}, fmt.Errorf("no digits in price text %q", text)
	}

	// Keep only the first comma as the decimal separator; anything after a
	// second comma is a glued artifact.
	parts := strings.SplitN(cleaned, ",", 3)
	switch len(parts) {
	case 1:
		cleaned = parts[0]
	default:
		cleaned = parts[0] + "." + strings.ReplaceAll(strings.Join(parts[1:], ""), ",", "")
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", text, err)
	}
	if value.IsNegative() {
		return Price{}, fmt.Errorf("negative price %q", text)
	}

	return Price{Raw: strings.TrimSpace(text), Value: value}, nil
}

// FormatPrice renders a numeric value back into the localized shape used in
// outbound messages ("1234.5" -> "1.234,50" without the currency symbol).
func FormatPrice(value decimal.Decimal) string {
	fixed := value.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 && r != '-' {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return grouped.String() + "," + fracPart
}

// Normalize turns the raw price and discount texts of one card into a
// consistent (current, original, discount) triple. Deterministic; no side
// effects.
func (p *Pipeline) Normalize(fields RawFields) Normalized {
	var prices []Price
	for _, text := range fields.PriceTexts {
		price, err := ParsePrice(text)
		if err != nil {
			continue // unparseable entries are discarded silently
		}
		prices = append(prices, price)
	}

	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Value.LessThan(prices[j].Value)
	})

	norm := Normalized{Discount: parseDiscount(fields.DiscountText)}

	if len(prices) > 0 {
		norm.Current = &prices[0]
		last := prices[len(prices)-1]
		if !last.Value.Equal(norm.Current.Value) {
			norm.Original = &last
		}
	}

	p.validatePair(&norm)
	p.backComputeOriginal(&norm)

	return norm
}

// parseDiscount reads the integer preceding the first percent sign; a
// missing or malformed discount text means zero.
func parseDiscount(text string) int {
	m := discountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	d, err := strconv.Atoi(m[1])
	if err != nil || d < 0 {
		return 0
	}
	if d > 100 {
		return 100
	}
	return d
}

// validatePair cross-checks the advertised discount against the discount
// implied by the two prices. A large gap means the captured original is a
// mis-paired fragment (a per-unit figure, a bundle price), so it is dropped
// rather than propagated.
func (p *Pipeline) validatePair(norm *Normalized) {
	if norm.Current == nil || norm.Original == nil || !norm.Original.Value.IsPositive() {
		return
	}

	ratio := norm.Current.Value.Div(norm.Original.Value)
	implied := decimal.NewFromInt(100).Mul(decimal.NewFromInt(1).Sub(ratio))
	gap := implied.Sub(decimal.NewFromInt(int64(norm.Discount))).Abs()

	if gap.GreaterThan(decimal.NewFromInt(int64(p.opts.Tolerance))) {
		norm.Original = nil
	}
}

// backComputeOriginal fills in a missing original price from the advertised
// discount so that a "was" price can always be surfaced when the discount
// itself is trustworthy.
func (p *Pipeline) backComputeOriginal(norm *Normalized) {
	if norm.Original != nil || norm.Current == nil {
		return
	}
	if norm.Discount <= 0 || norm.Discount >= 100 {
		return
	}

	value := norm.Current.Value.
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(100 - norm.Discount))).
		Round(2)

	norm.Original = &Price{
		Raw:   "R$ " + FormatPrice(value),
		Value: value,
	}
	norm.OriginalComputed = true
}
