package split

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page summarizes a test page.
type Page struct {
	Title string
	// RunCalls counts ".run(gl);" occurrences inside <script> elements.
	RunCalls int
	Scripts  int
}

// Inspect parses an HTML test page.
func Inspect(r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse html: %w", err)
	}
	var p Page
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if p.Title == "" {
					p.Title = strings.TrimSpace(textOf(n))
				}
			case atom.Script:
				p.Scripts++
				p.RunCalls += strings.Count(textOf(n), runCall)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return p, nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
