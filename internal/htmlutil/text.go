package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/happyhackingspace/textcat/internal/textutil"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped holds elements whose text is never shown to a reader.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Object:   true,
}

// block elements end a run of text, so words on either side are not glued together.
var block = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.Ul: true,
}

// VisibleText returns the text a reader would see in root, with whitespace
// collapsed. Elements with the hidden attribute are skipped.
func VisibleText(root *goquery.Selection) string {
	var buf []string

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				buf = append(buf, s)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if skipped[n.DataAtom] || hasAttr(n, "hidden") {
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if n.Type == html.ElementNode && block[n.DataAtom] && len(buf) > 0 && buf[len(buf)-1] != "\n" {
			buf = append(buf, "\n")
		}
	}

	for _, n := range root.Nodes {
		visit(n)
	}
	return textutil.Normalize(strings.Join(buf, " "))
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
