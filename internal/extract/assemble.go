package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// fallbackTitle is used when every candidate cleans down to nothing; a deal
// title must never be empty.
const fallbackTitle = "Produto em Oferta"

// boilerplateRes matches marketing noise the retailer glues onto titles:
// lowest-price banners, repeated discount badges, price-label artifacts.
var boilerplateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)menor preço em \d+ dias`),
	regexp.MustCompile(`(?i)oferta\s*-?\s*\d+\s*%\s*off`),
	regexp.MustCompile(`(?i)r\$\s*por:`),
	regexp.MustCompile(`(?i)preçodaoferta`),
}

func isBoilerplate(line string) bool {
	for _, re := range boilerplateRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Assemble combines the raw and normalized fields of one card into a Deal,
// or reports why the card was dropped. Rejection is informational, not an
// error.
func (p *Pipeline) Assemble(fields RawFields, norm Normalized, index int) (*Deal, SkipReason) {
	if fields.Link == "" {
		return nil, SkipNoLink
	}
	if norm.Current == nil {
		return nil, SkipNoPrice
	}
	if norm.Discount < p.opts.MinDiscount {
		return nil, SkipLowDiscount
	}

	title := p.cleanTitle(fields.TitleCandidates)

	if p.implausible(title, norm) {
		return nil, SkipImplausible
	}

	id, quality := p.dealID(fields, norm, index)

	return &Deal{
		ID:              id,
		IDQuality:       quality,
		Title:           title,
		Link:            p.canonicalURL(fields),
		CurrentPrice:    norm.Current,
		OriginalPrice:   norm.Original,
		DiscountPercent: norm.Discount,
		ImageURL:        fields.ImageURL,
	}, SkipNone
}

// cleanTitle strips boilerplate from each candidate in order and returns the
// first that survives cleaning, capped at the configured length.
func (p *Pipeline) cleanTitle(candidates []string) string {
	for _, candidate := range candidates {
		cleaned := candidate
		for _, re := range boilerplateRes {
			cleaned = re.ReplaceAllString(cleaned, "")
		}
		cleaned = strings.Join(strings.Fields(cleaned), " ")
		if cleaned == "" {
			continue
		}
		if runes := []rune(cleaned); len(runes) > p.opts.TitleMaxLen {
			cleaned = string(runes[:p.opts.TitleMaxLen])
		}
		return cleaned
	}
	return fallbackTitle
}

// implausible flags low-price, high-discount offers on high-value product
// categories when there is no captured original price to cross-check
// against. Those combinations are almost always a misread badge.
func (p *Pipeline) implausible(title string, norm Normalized) bool {
	if norm.Original != nil && !norm.OriginalComputed {
		return false // the pair was validated against the advertised discount
	}
	if norm.Discount < p.opts.HighDiscountMin {
		return false
	}
	if norm.Current.Value.GreaterThanOrEqual(p.opts.LowPriceMax) {
		return false
	}
	lower := strings.ToLower(title)
	for _, keyword := range p.opts.HighValueKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// dealID returns the stable product code when one was extracted, falling
// back to a synthetic position-derived id. Synthetic ids may collide with a
// different product on the next run, so they carry the lower quality flag.
func (p *Pipeline) dealID(fields RawFields, norm Normalized, index int) (string, IDQuality) {
	if fields.IDHint != "" {
		return fields.IDHint, IDStable
	}
	return fmt.Sprintf("deal_%d_%d", index, norm.Discount), IDSynthetic
}

// canonicalURL rebuilds the outbound link from the bare product code when
// possible; raw hrefs carry session and tracking noise that changes between
// extractions. The affiliate tag is appended last.
func (p *Pipeline) canonicalURL(fields RawFields) string {
	link := fields.Link

	if m := asinRe.FindStringSubmatch(link); m != nil {
		link = p.opts.BaseURL + "/dp/" + m[1]
	} else {
		link, _, _ = strings.Cut(link, "?")
		link, _, _ = strings.Cut(link, "ref=")
		link = strings.TrimRight(link, "/")
	}

	if p.opts.AffiliateTag != "" {
		sep := "?"
		if strings.Contains(link, "?") {
			sep = "&"
		}
		link += sep + "tag=" + p.opts.AffiliateTag
	}

	return link
}
