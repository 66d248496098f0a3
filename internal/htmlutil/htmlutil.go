// Package htmlutil extracts classifiable text and metadata from HTML pages.
package htmlutil

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/happyhackingspace/textcat/internal/textutil"
)

// LoadHTML parses HTML bytes into a goquery Document.
func LoadHTML(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// LoadHTMLString parses HTML string into a goquery Document.
func LoadHTMLString(htmlStr string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

// Page is the text content of an HTML document.
type Page struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Lang        string `json:"lang,omitempty"`
	Text        string `json:"-"`
}

// ParsePage parses htmlStr and extracts its Page.
func ParsePage(htmlStr string) (Page, error) {
	doc, err := LoadHTMLString(htmlStr)
	if err != nil {
		return Page{}, err
	}
	return ExtractPage(doc), nil
}

// ExtractPage collects title, description, language and visible text of doc.
func ExtractPage(doc *goquery.Document) Page {
	return Page{
		Title:       GetTitle(doc),
		Description: GetMetaDescription(doc),
		Lang:        GetLang(doc),
		Text:        VisibleText(doc.Selection),
	}
}

// GetTitle returns the normalized <title> text.
func GetTitle(doc *goquery.Document) string {
	return textutil.Normalize(doc.Find("title").First().Text())
}

// GetMetaDescription returns the content of <meta name="description"> or og:description.
func GetMetaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = textutil.Normalize(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// GetLang returns the lang attribute of <html>, lowercased.
func GetLang(doc *goquery.Document) string {
	lang, _ := doc.Find("html").First().Attr("lang")
	return strings.ToLower(strings.TrimSpace(lang))
}
