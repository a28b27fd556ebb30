package ia

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// Section motif labels. Downstream generators key on these strings.
const (
	SectionHero         = "hero"
	SectionFeatureGrid  = "feature_grid"
	SectionTestimonials = "testimonials"
	SectionProductGrid  = "product_grid"
	SectionNewsletter   = "newsletter"
	SectionFAQ          = "faq"
)

// Section detection thresholds.
const (
	// SampleRunes is the length of the text sample stored with each
	// detected motif.
	SampleRunes = 200

	// FeatureGridMinItems is the minimum number of same-shaped sibling
	// blocks that reads as a feature grid.
	FeatureGridMinItems = 3

	// ProductGridMinLinks is the minimum number of product links in one
	// container that reads as a product grid.
	ProductGridMinLinks = 4
)

// motifDetector finds occurrences of one motif in a document and returns
// the count plus a text sample from the first occurrence.
type motifDetector struct {
	label  string
	detect func(*goquery.Document) (int, string)
}

// motifs is the fixed detector order. Detection order does not affect
// output ordering (sections sort by count), but keeping it fixed keeps
// sample selection deterministic.
var motifs = []motifDetector{
	{SectionHero, detectHero},
	{SectionFeatureGrid, detectFeatureGrid},
	{SectionTestimonials, detectTestimonials},
	{SectionProductGrid, detectProductGrid},
	{SectionNewsletter, detectNewsletter},
	{SectionFAQ, detectFAQ},
}

// extractSections counts structural motifs across all fetched pages.
// Output is sorted by occurrence count, ties by label, and carries a
// short text sample from the first page each motif was seen on.
func extractSections(pages []*model.PageNode) []model.SectionPattern {
	counts := make(map[string]int)
	samples := make(map[string]string)

	for _, page := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.RawHTML))
		if err != nil {
			continue
		}
		for _, m := range motifs {
			n, sample := m.detect(doc)
			if n == 0 {
				continue
			}
			counts[m.label] += n
			if _, ok := samples[m.label]; !ok && sample != "" {
				samples[m.label] = sample
			}
		}
	}

	patterns := make([]model.SectionPattern, 0, len(counts))
	for label, count := range counts {
		patterns = append(patterns, model.SectionPattern{
			Label:  label,
			Count:  count,
			Sample: samples[label],
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Label < patterns[j].Label
	})
	return patterns
}

// detectHero finds banner blocks: elements explicitly classed hero or
// banner, or a top-of-page section pairing a heading with a call to
// action link.
func detectHero(doc *goquery.Document) (int, string) {
	sel := doc.Find("[class*=hero], [class*=banner], [id*=hero]")
	if sel.Length() > 0 {
		return sel.Length(), sampleText(sel.First())
	}

	first := doc.Find("body section, body header + div").First()
	if first.Length() == 0 {
		return 0, ""
	}
	if first.Find("h1, h2").Length() > 0 && first.Find("a, button").Length() > 0 {
		return 1, sampleText(first)
	}
	return 0, ""
}

// detectFeatureGrid finds containers with several same-tag sibling blocks
// that each carry a heading, the shape marketing feature rows render as.
func detectFeatureGrid(doc *goquery.Document) (int, string) {
	count := 0
	var sample string
	doc.Find("div, section, ul").Each(func(_ int, container *goquery.Selection) {
		shapes := make(map[string]int)
		container.Children().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "" {
				return
			}
			if child.Find("h2, h3, h4").Length() > 0 {
				shapes[goquery.NodeName(child)]++
			}
		})
		for _, n := range shapes {
			if n >= FeatureGridMinItems {
				count++
				if sample == "" {
					sample = sampleText(container)
				}
				break
			}
		}
	})
	return count, sample
}

// detectTestimonials finds review and testimonial blocks by class name or
// quote structure.
func detectTestimonials(doc *goquery.Document) (int, string) {
	sel := doc.Find("[class*=testimonial], [class*=review] blockquote, blockquote[class*=quote]")
	if sel.Length() == 0 {
		return 0, ""
	}
	return sel.Length(), sampleText(sel.First())
}

// detectProductGrid finds containers holding several product-path links.
func detectProductGrid(doc *goquery.Document) (int, string) {
	count := 0
	var sample string
	const productLinks = "a[href*='/products/'], a[href*='/product/'], a[href*='/p/']"
	doc.Find("div, section, ul").Each(func(_ int, container *goquery.Selection) {
		// Count direct children that are, or directly wrap, a product
		// link. Counting per grid item instead of per descendant keeps a
		// nested layout from claiming the same grid at every level.
		links := 0
		container.Children().Each(func(_ int, child *goquery.Selection) {
			if child.Is(productLinks) || child.ChildrenFiltered(productLinks).Length() > 0 {
				links++
			}
		})
		if links >= ProductGridMinLinks {
			count++
			if sample == "" {
				sample = sampleText(container)
			}
		}
	})
	return count, sample
}

// detectNewsletter finds signup forms with an email input.
func detectNewsletter(doc *goquery.Document) (int, string) {
	sel := doc.Find("form").FilterFunction(func(_ int, form *goquery.Selection) bool {
		return form.Find("input[type=email]").Length() > 0
	})
	if sel.Length() == 0 {
		return 0, ""
	}
	return sel.Length(), sampleText(sel.First())
}

// detectFAQ finds FAQ blocks by heading text or disclosure structure.
func detectFAQ(doc *goquery.Document) (int, string) {
	count := 0
	var sample string
	doc.Find("h1, h2, h3").Each(func(_ int, h *goquery.Selection) {
		text := strings.ToLower(h.Text())
		if strings.Contains(text, "faq") || strings.Contains(text, "frequently asked") {
			count++
			if sample == "" {
				sample = sampleText(h.Parent())
			}
		}
	})
	if details := doc.Find("details summary"); details.Length() >= 2 && count == 0 {
		count = 1
		sample = sampleText(details.First().Parent())
	}
	return count, sample
}

// sampleText returns the first SampleRunes runes of an element's
// whitespace-normalized text.
func sampleText(s *goquery.Selection) string {
	text := strings.Join(strings.Fields(s.Text()), " ")
	runes := []rune(text)
	if len(runes) > SampleRunes {
		return string(runes[:SampleRunes])
	}
	return text
}
