package server

import (
	"github.com/happyhackingspace/textcat"
	"github.com/happyhackingspace/textcat/transform"
)

func newInfoResponse(c *textcat.Classifier) infoResponse {
	info := c.Info()
	resp := infoResponse{
		Version:         info.Version,
		Timestamp:       info.Timestamp,
		Locale:          info.Locale,
		Transformations: make([]string, 0, len(info.Transformations)),
		Classes:         []string{},
	}
	for _, tr := range info.Transformations {
		resp.Transformations = append(resp.Transformations, transform.Describe(tr))
	}
	if info.Model != nil {
		resp.Classes = info.Model.Classes()
		resp.Dimension = info.Model.Dim()
	}
	return resp
}
