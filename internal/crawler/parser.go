package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageContent holds the structures pulled out of one HTML document. All
// text values are whitespace-normalized; caps on heading counts and text
// length are applied by the caller, not here.
type PageContent struct {
	Title           string
	H1              string
	H2s             []string
	H3s             []string
	MetaDescription string
	Links           []string
	Text            string
}

// skipTextElements are elements whose text content never belongs in the
// visible-text snapshot.
var skipTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// ParsePage parses an HTML document and extracts its title, headings,
// meta description, same-document link targets resolved against base, and
// a whitespace-normalized visible-text snapshot. Parse errors on broken
// markup are tolerated the way browsers tolerate them; only a document
// that cannot be tokenized at all returns an error.
func ParsePage(body []byte, base *url.URL) (*PageContent, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	content := &PageContent{}
	var text strings.Builder
	walkPage(root, base, content, &text, false)
	content.Text = normalizeSpace(text.String())
	return content, nil
}

func walkPage(n *html.Node, base *url.URL, content *PageContent, text *strings.Builder, inBody bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if content.Title == "" {
				content.Title = normalizeSpace(nodeText(n))
			}
			return
		case "meta":
			if strings.EqualFold(attrValue(n, "name"), "description") {
				if content.MetaDescription == "" {
					content.MetaDescription = normalizeSpace(attrValue(n, "content"))
				}
			}
			return
		case "h1":
			if content.H1 == "" {
				content.H1 = normalizeSpace(headingText(n))
			}
		case "h2":
			if heading := normalizeSpace(headingText(n)); heading != "" {
				content.H2s = append(content.H2s, heading)
			}
		case "h3":
			if heading := normalizeSpace(headingText(n)); heading != "" {
				content.H3s = append(content.H3s, heading)
			}
		case "a":
			if href := attrValue(n, "href"); href != "" {
				if link, ok := resolveLink(base, href); ok {
					content.Links = append(content.Links, link)
				}
			}
		case "body":
			inBody = true
		case "script", "style", "noscript", "template", "svg":
			return
		}
	}

	if n.Type == html.TextNode && inBody {
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			text.WriteString(trimmed)
			text.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkPage(c, base, content, text, inBody)
	}
}

// resolveLink resolves href against base and canonicalizes it, rejecting
// non-HTTP schemes and anchors.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return CanonicalURL(resolved), true
}

// blockElements end heading text extraction. An unclosed heading tag
// makes the parser nest following block content inside the heading node;
// that text belongs to the body, not the heading.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"ul": true, "ol": true, "table": true, "form": true,
	"header": true, "footer": true, "nav": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// headingText concatenates the inline text of a heading. Inline children
// like em and span contribute; block-level children are cut off.
func headingText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
			return
		}
		if node.Type == html.ElementNode &&
			(blockElements[node.Data] || skipTextElements[node.Data]) {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return b.String()
}

// nodeText concatenates the text descendants of n, skipping script-like
// subtrees.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
			return
		}
		if node.Type == html.ElementNode && skipTextElements[node.Data] {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// normalizeSpace collapses runs of whitespace to single spaces and trims
// the result.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
