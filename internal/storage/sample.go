// Package storage provides access to a folder of labelled pages used to evaluate models.
package storage

// LabelSchema holds the label vocabulary of a corpus.
type LabelSchema struct {
	Classes     []string
	NAValue     string
	SkipValue   string
	SimplifyMap map[string]string // raw label -> model class
}

// Sample is a single labelled page.
type Sample struct {
	Path     string // relative to the storage folder
	URL      string
	Label    string // after simplification
	RawLabel string
	HTML     string
}

// Domain returns the registrable domain name of the sample URL.
func (s Sample) Domain() string {
	return GetDomain(s.URL)
}
