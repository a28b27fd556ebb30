package ia

import (
	"testing"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

func sectionPage(html string) []*model.PageNode {
	return []*model.PageNode{
		fetchedPage("https://rival.example/", 0, model.PageTypeHome, html, ""),
	}
}

func findSection(patterns []model.SectionPattern, label string) *model.SectionPattern {
	for i := range patterns {
		if patterns[i].Label == label {
			return &patterns[i]
		}
	}
	return nil
}

func TestExtractSectionsHero(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	  <div class="hero-banner">
	    <h1>Tea, done right</h1>
	    <a href="/shop">Shop now</a>
	  </div>
	</body></html>`

	got := extractSections(sectionPage(html))
	hero := findSection(got, SectionHero)
	if hero == nil {
		t.Fatalf("sections = %v, want a hero motif", got)
	}
	if hero.Sample == "" || len([]rune(hero.Sample)) > SampleRunes {
		t.Errorf("hero Sample = %q, want non-empty and capped at %d runes", hero.Sample, SampleRunes)
	}
}

func TestExtractSectionsFeatureGrid(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	  <section class="features">
	    <div><h3>Free shipping</h3><p>On all orders</p></div>
	    <div><h3>Fresh harvest</h3><p>Direct from farms</p></div>
	    <div><h3>Fair trade</h3><p>Certified partners</p></div>
	  </section>
	</body></html>`

	got := extractSections(sectionPage(html))
	if findSection(got, SectionFeatureGrid) == nil {
		t.Errorf("sections = %v, want a feature_grid motif for %d same-shaped siblings", got, FeatureGridMinItems)
	}
}

func TestExtractSectionsProductGrid(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	  <ul class="grid">
	    <li><a href="/products/a">A</a></li>
	    <li><a href="/products/b">B</a></li>
	    <li><a href="/products/c">C</a></li>
	    <li><a href="/products/d">D</a></li>
	  </ul>
	</body></html>`

	got := extractSections(sectionPage(html))
	if findSection(got, SectionProductGrid) == nil {
		t.Errorf("sections = %v, want a product_grid motif for %d product links", got, ProductGridMinLinks)
	}
}

func TestExtractSectionsNewsletterAndTestimonials(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	  <div class="testimonials">
	    <blockquote>Best tea I have had.</blockquote>
	  </div>
	  <form action="/subscribe"><input type="email" name="email"></form>
	</body></html>`

	got := extractSections(sectionPage(html))
	if findSection(got, SectionNewsletter) == nil {
		t.Errorf("sections = %v, want a newsletter motif", got)
	}
	if findSection(got, SectionTestimonials) == nil {
		t.Errorf("sections = %v, want a testimonials motif", got)
	}
}

func TestExtractSectionsFAQ(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	  <h2>Frequently Asked Questions</h2>
	  <p>How do I brew green tea?</p>
	</body></html>`

	got := extractSections(sectionPage(html))
	if findSection(got, SectionFAQ) == nil {
		t.Errorf("sections = %v, want a faq motif", got)
	}
}

func TestExtractSectionsCountsAcrossPages(t *testing.T) {
	t.Parallel()

	form := `<html><body><form><input type="email"></form></body></html>`
	pages := []*model.PageNode{
		fetchedPage("https://rival.example/", 0, model.PageTypeHome, form, ""),
		fetchedPage("https://rival.example/about", 1, model.PageTypeAbout, form, ""),
	}

	got := extractSections(pages)
	newsletter := findSection(got, SectionNewsletter)
	if newsletter == nil || newsletter.Count != 2 {
		t.Errorf("newsletter = %+v, want count 2 across pages", newsletter)
	}
}

func TestExtractSectionsNoneOnPlainPage(t *testing.T) {
	t.Parallel()

	html := `<html><body><p>Just a paragraph of text.</p></body></html>`
	if got := extractSections(sectionPage(html)); len(got) != 0 {
		t.Errorf("sections = %v, want none on a plain page", got)
	}
}
