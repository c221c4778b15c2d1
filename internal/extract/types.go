package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// RawCard is one DOM fragment hypothesized to hold a single offer.
// It lives only for the duration of one extraction pass.
type RawCard struct {
	Selection *goquery.Selection
	Text      string // flattened inner text, trimmed
	Index     int    // position within the located card list
}

// RawFields holds the unprocessed signals pulled out of a single card.
// Absent fields are empty values, never errors.
type RawFields struct {
	Link            string
	IDHint          string   // ASIN or deal id extracted from the link, if any
	TitleCandidates []string // ordered, best guess first
	PriceTexts      []string // every currency-looking substring, deduplicated
	DiscountText    string
	ImageURL        string
}

// Price pairs a captured (or synthesized) price text with its numeric value.
type Price struct {
	Raw   string          `json:"raw"`
	Value decimal.Decimal `json:"value"`
}

// Normalized is the output of the price/discount normalizer for one card.
type Normalized struct {
	Current  *Price
	Original *Price
	Discount int
	// OriginalComputed is true when Original was back-computed from the
	// advertised discount instead of captured from the page.
	OriginalComputed bool
}

// IDQuality flags how trustworthy a deal identifier is. Synthetic ids are
// derived from card position and are not stable across runs.
type IDQuality string

const (
	IDStable    IDQuality = "stable"
	IDSynthetic IDQuality = "synthetic"
)

// Deal is the canonical, validated record for one offer.
// Immutable after assembly.
type Deal struct {
	ID              string    `json:"id"`
	IDQuality       IDQuality `json:"id_quality"`
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	CurrentPrice    *Price    `json:"price,omitempty"`
	OriginalPrice   *Price    `json:"original_price,omitempty"`
	DiscountPercent int       `json:"discount"`
	ImageURL        string    `json:"image,omitempty"`
}

// SkipReason explains why a card did not become a Deal.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipNoLink
	SkipNoPrice
	SkipLowDiscount
	SkipImplausible
)

// String returns the reason name for logging and stats.
func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipNoLink:
		return "no_link"
	case SkipNoPrice:
		return "no_price"
	case SkipLowDiscount:
		return "low_discount"
	case SkipImplausible:
		return "implausible"
	default:
		return "unknown"
	}
}

// Stats summarizes one extraction pass.
type Stats struct {
	Strategy string
	Cards    int
	Deals    int
	Skipped  map[SkipReason]int
}

// Options configures the extraction pipeline. Construct once at startup and
// pass in; there is no ambient configuration state.
type Options struct {
	BaseURL      string
	AffiliateTag string

	MinDiscount int
	// Tolerance is the maximum gap, in percentage points, allowed between
	// the advertised discount and the discount implied by the two prices
	// before the captured original price is considered unreliable.
	Tolerance int

	TitleMaxLen int

	// Plausibility filter: a card claiming a very high discount with a very
	// low price on a high-value product is most likely a misread.
	HighDiscountMin   int
	LowPriceMax       decimal.Decimal
	HighValueKeywords []string
}

// DefaultOptions returns the options used by the reference deployment.
func DefaultOptions() Options {
	return Options{
		BaseURL:         "https://www.amazon.com.br",
		MinDiscount:     20,
		Tolerance:       15,
		TitleMaxLen:     200,
		HighDiscountMin: 80,
		LowPriceMax:     decimal.NewFromInt(20),
		HighValueKeywords: []string{
			"notebook", "iphone", "macbook", "playstation", "xbox",
			"console", "geladeira", "smartphone", "monitor", "tv ",
		},
	}
}

// Pipeline runs the extraction stages with a fixed set of options.
type Pipeline struct {
	opts Options
}

// NewPipeline creates a pipeline with the given options. Zero-valued option
// fields fall back to defaults so tests can set only what they exercise.
func NewPipeline(opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.TitleMaxLen == 0 {
		opts.TitleMaxLen = def.TitleMaxLen
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.HighDiscountMin == 0 {
		opts.HighDiscountMin = def.HighDiscountMin
	}
	if opts.LowPriceMax.IsZero() {
		opts.LowPriceMax = def.LowPriceMax
	}
	if opts.HighValueKeywords == nil {
		opts.HighValueKeywords = def.HighValueKeywords
	}
	return &Pipeline{opts: opts}
}

// Run executes the full pass on a rendered document: locate cards, extract
// and normalize fields, assemble deals. Skips are counted, never fatal.
func (p *Pipeline) Run(doc *goquery.Document) ([]Deal, Stats) {
	cards, strategy := Locate(doc)

	stats := Stats{
		Strategy: strategy,
		Cards:    len(cards),
		Skipped:  make(map[SkipReason]int),
	}

	var deals []Deal
	for _, card := range cards {
		fields := p.ExtractFields(card)
		norm := p.Normalize(fields)
		deal, reason := p.Assemble(fields, norm, card.Index)
		if deal == nil {
			stats.Skipped[reason]++
			continue
		}
		deals = append(deals, *deal)
	}
	stats.Deals = len(deals)

	return deals, stats
}
