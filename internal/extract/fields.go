package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	asinRe     = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	dealIDRe   = regexp.MustCompile(`(?i)dealid=([^&]+)`)
	priceRe    = regexp.MustCompile(`R\$\s*\d{1,3}(?:\.\d{3})*,\d{2}`)
	discountRe = regexp.MustCompile(`(\d+)\s*%`)
)

// titleSelector covers the element shapes the retailer has used for product
// labels over time.
const titleSelector = `span[class*="title"], a[class*="title"], span.a-truncate-full, div[class*="Title"], span.a-text-normal, a span`

// minTitleLen is the shortest string accepted as a title candidate from
// secondary sources (anchor text, image alt, flattened lines).
const minTitleLen = 10

// ExtractFields pulls the raw signals out of one card. Every field is
// best-effort: absence is an empty value, and the assembler decides whether
// the card is still usable.
func (p *Pipeline) ExtractFields(card RawCard) RawFields {
	fields := RawFields{}

	anchor := findProductAnchor(card.Selection)
	if anchor != nil {
		if href, ok := anchor.Attr("href"); ok && href != "" {
			fields.Link = p.resolveLink(strings.TrimSpace(href))
			fields.IDHint = extractIDHint(fields.Link)
		}
	}

	fields.TitleCandidates = collectTitleCandidates(card, anchor)
	fields.PriceTexts = collectPriceTexts(card.Text)
	fields.DiscountText = discountRe.FindString(card.Text)

	if img := card.Selection.Find("img[src]").First(); img.Length() > 0 {
		fields.ImageURL, _ = img.Attr("src")
	}

	return fields
}

// findProductAnchor returns the most product-like anchor in the card: a
// detail-page link first, then a deal link, then any link at all. A card
// that is itself an anchor (anchor-based locator strategy) counts too.
func findProductAnchor(s *goquery.Selection) *goquery.Selection {
	for _, sel := range []string{`a[href*="/dp/"]`, `a[href*="/deal/"]`, `a[href]`} {
		if s.Is(sel) {
			return s
		}
		if found := s.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func (p *Pipeline) resolveLink(href string) string {
	if strings.HasPrefix(href, "/") {
		return p.opts.BaseURL + href
	}
	return href
}

// extractIDHint pulls a stable product code from a link: the fixed-length
// ASIN when present, otherwise a deal id query parameter.
func extractIDHint(link string) string {
	if m := asinRe.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := dealIDRe.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// collectTitleCandidates gathers every plausible title in priority order.
// Candidates are appended rather than short-circuited so the assembler can
// fall through when an earlier one cleans down to nothing.
func collectTitleCandidates(card RawCard, anchor *goquery.Selection) []string {
	var candidates []string

	if titled := card.Selection.Find(titleSelector).First(); titled.Length() > 0 {
		if t := strings.TrimSpace(titled.Text()); t != "" {
			candidates = append(candidates, t)
		}
	}

	if anchor != nil {
		if t := strings.TrimSpace(anchor.Text()); len(t) > minTitleLen {
			candidates = append(candidates, t)
		}
	}

	if img := card.Selection.Find("img[alt]").First(); img.Length() > 0 {
		if alt, _ := img.Attr("alt"); len(strings.TrimSpace(alt)) > minTitleLen {
			candidates = append(candidates, strings.TrimSpace(alt))
		}
	}

	if line := longestTitleLine(card.Text); line != "" {
		candidates = append(candidates, line)
	}

	return candidates
}

// longestTitleLine picks the longest line of the flattened card text that
// does not look like a price, a percentage, or marketing boilerplate.
func longestTitleLine(text string) string {
	var best string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= minTitleLen {
			continue
		}
		if priceRe.MatchString(line) || discountRe.MatchString(line) {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		if len(line) > len(best) {
			best = line
		}
	}
	return best
}

// collectPriceTexts scans the flattened text for every localized currency
// substring. Over-inclusive on purpose: price markup position is unreliable,
// so the normalizer sorts out which value is which.
func collectPriceTexts(text string) []string {
	matches := priceRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var texts []string
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		texts = append(texts, m)
	}
	return texts
}
