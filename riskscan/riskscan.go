// Package riskscan derives suspicious-indicator tags from a fetched web
// page. The pass is deterministic and stateless: fixed TLD/shortener/keyword
// tables, no external calls, identical output for identical input.
//
// Indicators are advisory context for the judgement prompt; they never gate
// or weight the verdict themselves.
package riskscan

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Indicator tags produced by the structural rules.
const (
	IndicatorSuspiciousTLD = "Suspicious top-level domain"
	IndicatorURLShortener  = "URL shortener detected"
	IndicatorLongURL       = "Unusually long URL"
	IndicatorURLStructure  = "Suspicious URL structure"
	IndicatorExcessiveCaps = "Excessive capitalization detected"
	IndicatorPasswordForm  = "Password input form detected"
)

var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".click", ".download"}

var shorteners = []string{"bit.ly", "tinyurl.com", "goo.gl", "t.co", "short.link"}

var spamKeywords = []string{
	"click here now", "limited time offer", "act now", "free money",
	"you have won", "congratulations", "urgent", "verify your account",
	"suspended account", "click to verify", "tax refund", "inheritance",
}

// Page holds the parsed artifacts of one HTML document.
type Page struct {
	Title       string
	Description string
	Text        string // visible text, whitespace-collapsed
	doc         *html.Node
}

// Parse builds a Page from raw HTML. Visible text excludes the contents of
// script, style, nav, footer and header elements.
func Parse(rawHTML []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("riskscan: parse HTML: %w", err)
	}
	return &Page{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
		Text:        visibleText(doc),
		doc:         doc,
	}, nil
}

// Scan evaluates every rule unconditionally and returns matched indicators
// in rule order. Rules are independent; duplicates are allowed.
func Scan(url, domain string, page *Page) []string {
	var indicators []string

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			indicators = append(indicators, IndicatorSuspiciousTLD)
			break
		}
	}

	for _, s := range shorteners {
		if strings.Contains(domain, s) {
			indicators = append(indicators, IndicatorURLShortener)
			break
		}
	}

	if len(url) > 100 {
		indicators = append(indicators, IndicatorLongURL)
	}

	if strings.Count(url, "-") > 5 || strings.Count(url, ".") > 5 {
		indicators = append(indicators, IndicatorURLStructure)
	}

	textLower := strings.ToLower(page.Text)
	for _, kw := range spamKeywords {
		if strings.Contains(textLower, kw) {
			indicators = append(indicators, fmt.Sprintf("Spam keyword detected: '%s'", kw))
		}
	}

	if capsRatio(page.Text) > 0.3 {
		indicators = append(indicators, IndicatorExcessiveCaps)
	}

	if page.doc != nil {
		for i := 0; i < passwordForms(page.doc); i++ {
			indicators = append(indicators, IndicatorPasswordForm)
		}
	}

	return indicators
}

// Truncate limits s to max runes, appending an ellipsis marker only when
// something was cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// capsRatio is uppercase letters over all letters; 0 for letterless text.
func capsRatio(text string) float64 {
	var upper, letters int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// strippedElements are removed from the visible-text walk.
func isStrippedElement(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
		return true
	}
	return false
}

// visibleText collects text nodes outside stripped elements, collapsing
// whitespace to single spaces.
func visibleText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isStrippedElement(n.DataAtom) {
			return
		}
		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// passwordForms counts the <form> elements containing a password-typed
// input. Each matching form contributes one indicator.
func passwordForms(doc *html.Node) int {
	var count int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Form && containsPasswordInput(n) {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return count
}

func containsPasswordInput(form *html.Node) bool {
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Input {
			for _, attr := range n.Attr {
				if attr.Key == "type" && strings.EqualFold(attr.Val, "password") {
					found = true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := form.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return found
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

func findMetaDescription(doc *html.Node) string {
	var desc string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			var name, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if strings.EqualFold(name, "description") {
				desc = content
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return desc
}
