package board

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrNoCards is returned when an upload parses as HTML but yields no cards.
var ErrNoCards = errors.New("no cards found in export")

var (
	datePat  = regexp.MustCompile(`(?i)Received[:\s]+(\d{1,2}/\d{1,2}/\d{2,4})`)
	pricePat = regexp.MustCompile(`(?i)Quoted Price\s*[$:]*\s*([\d,]+)`)
)

var dateLayouts = []string{"1/2/06", "1/2/2006", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ExtractCards parses a board export and returns every card that carries a
// parseable received date. Ages are computed against today (UTC date).
func ExtractCards(r io.Reader, today time.Time) ([]Card, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	today = truncateToDay(today.UTC())

	var out []Card
	for _, wrapper := range findDivs(doc, hasClassPrefix("_outerWrapper_")) {
		header := firstDiv(wrapper, hasClassPrefix("_headerName_"))
		if header == nil {
			continue
		}
		column := nodeText(header)

		cards := findDivs(wrapper, hasClassToken("card"))
		if len(cards) == 0 {
			cards = findDivs(wrapper, nil)
		}

		for _, node := range cards {
			text := nodeText(node)
			if text == "" {
				continue
			}
			m := datePat.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			received, ok := parseDate(m[1])
			if !ok {
				continue
			}

			card := Card{
				Column:   column,
				Text:     text,
				Received: received,
				Age:      int(today.Sub(truncateToDay(received)).Hours() / 24),
			}
			if pm := pricePat.FindStringSubmatch(text); pm != nil {
				if price, err := strconv.Atoi(strings.ReplaceAll(pm[1], ",", "")); err == nil {
					card.Price = &price
				}
			}
			out = append(out, card)
		}
	}
	return out, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type classMatcher func(classes []string) bool

func hasClassPrefix(prefix string) classMatcher {
	return func(classes []string) bool {
		for _, c := range classes {
			if strings.HasPrefix(c, prefix) {
				return true
			}
		}
		return false
	}
}

func hasClassToken(token string) classMatcher {
	return func(classes []string) bool {
		for _, c := range classes {
			if c == token {
				return true
			}
		}
		return false
	}
}

func classesOf(n *html.Node) []string {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			return strings.Fields(attr.Val)
		}
	}
	return nil
}

func isDiv(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "div"
}

// findDivs collects descendant divs matching the class predicate. A nil
// matcher collects every descendant div. The root itself is not considered.
func findDivs(root *html.Node, match classMatcher) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isDiv(c) && (match == nil || match(classesOf(c))) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func firstDiv(root *html.Node, match classMatcher) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			if isDiv(c) && match(classesOf(c)) {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(root)
	return found
}

// nodeText joins all text fragments under the node with single spaces,
// trimming surrounding whitespace from each fragment.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
