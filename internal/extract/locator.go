package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one way of locating candidate deal cards in a document.
// Strategies are ordered from precise to heuristic; the locator stops at the
// first one that yields results.
type Strategy struct {
	Name string
	Find func(doc *goquery.Document) []*goquery.Selection
}

// strategies is the fixed cascade applied to the rendered listing page.
// The retailer's markup changes often, so no single selector is trusted.
var strategies = []Strategy{
	bySelector("testid", `[data-testid="grid-deals-container"] > div, [data-testid="deal-card"]`),
	bySelector("deal_card_classes", `div[class*="DealCard"], div[class*="deal-card"], div[class*="dealCard"]`),
	bySelector("classic_shelf", `.shoveler-cell, .a-list-item, div[data-deal-id], div[id*="deal"], li[class*="deal"]`),
	bySelector("product_anchors", `div.a-section a[href*="/dp/"], div.a-section a[href*="/deal/"], div.a-cardui`),
	{Name: "text_heuristic", Find: findDiscountTextBlocks},
}

// Locate tries each strategy in order and returns the cards produced by the
// first non-empty one, plus that strategy's name for logging. A strategy
// that panics on a malformed fragment counts as zero results.
func Locate(doc *goquery.Document) ([]RawCard, string) {
	for _, st := range strategies {
		sels := tryStrategy(st, doc)
		if len(sels) == 0 {
			continue
		}
		cards := make([]RawCard, 0, len(sels))
		for i, s := range sels {
			cards = append(cards, RawCard{
				Selection: s,
				Text:      strings.TrimSpace(s.Text()),
				Index:     i,
			})
		}
		return cards, st.Name
	}
	return nil, ""
}

func tryStrategy(st Strategy, doc *goquery.Document) (sels []*goquery.Selection) {
	defer func() {
		if r := recover(); r != nil {
			sels = nil
		}
	}()
	return st.Find(doc)
}

// bySelector builds a strategy that collects every element matched by a
// plain CSS selector.
func bySelector(name, selector string) Strategy {
	return Strategy{
		Name: name,
		Find: func(doc *goquery.Document) []*goquery.Selection {
			var sels []*goquery.Selection
			doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
				sels = append(sels, s)
			})
			return sels
		},
	}
}

// findDiscountTextBlocks is the last-resort strategy: any generic section
// whose text carries a percent sign together with a currency symbol or a
// discount keyword.
func findDiscountTextBlocks(doc *goquery.Document) []*goquery.Selection {
	var sels []*goquery.Selection
	doc.Find("div.a-section").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !strings.Contains(text, "%") {
			return
		}
		upper := strings.ToUpper(text)
		if strings.Contains(text, "R$") || strings.Contains(upper, "OFF") || strings.Contains(upper, "DESCONTO") {
			sels = append(sels, s)
		}
	})
	return sels
}
