// Package testmodel builds small topic models for tests.
package testmodel

import (
	"encoding/json"

	"github.com/happyhackingspace/textcat/internal/vectorizer"
	"github.com/happyhackingspace/textcat/linear"
	"github.com/happyhackingspace/textcat/pipeline"
	"github.com/happyhackingspace/textcat/transform"
)

// Topics maps each class of the model to the text its weights are built from.
var Topics = map[string]string{
	"crypto-crypto":  "ethereum bitcoin bat zcash crypto tokens wallet blockchain exchange mining coin",
	"sports-soccer":  "goal striker penalty league match referee midfield keeper football season",
	"food-cooking":   "recipe simmer garlic onion saute oven roast kitchen flour butter",
	"travel-hotels":  "hotel booking resort suite check-in lobby beach flight holiday",
	"personal-loans": "loan interest rate credit score mortgage lender debt repayment",
}

// Pages holds a page of at least twenty words for each class.
var Pages = map[string]string{
	"crypto-crypto": "Bitcoin and Ethereum prices moved higher today as crypto tokens rallied. " +
		"Traders moved coins from every exchange wallet while blockchain mining fees rose and zcash followed.",
	"sports-soccer": "The striker scored a late penalty goal in the league match. " +
		"The referee booked the keeper and the midfield struggled for the rest of the football season.",
	"food-cooking": "This recipe asks you to simmer garlic and onion, then saute them in butter. " +
		"Roast the vegetables in the oven and dust the kitchen table with flour before serving.",
}

// Locale is the locale written into the model document.
const Locale = "en"

// New returns an initialized pipeline with one class per topic.
func New() *pipeline.Pipeline {
	hashing := vectorizer.HashConfig{Buckets: 1000, SubstringSizes: []int{1, 2, 3, 4, 5, 6}}
	chain := transform.Chain{transform.Lowercase{}, transform.NewHashedNGrams(hashing), transform.Normalization{}}

	weights := make(map[string]vectorizer.SparseVector, len(Topics))
	for cls, text := range Topics {
		v := transform.AsVector(chain.Apply(transform.Text(text)))
		for i := range v.Values {
			v.Values[i] *= 10
		}
		weights[cls] = v.SparseVector
	}
	return pipeline.New(chain, linear.New(weights, nil))
}

// JSON returns the model document of New with Locale set.
func JSON() string {
	data, err := json.Marshal(New())
	if err != nil {
		panic(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		panic(err)
	}
	doc["locale"] = Locale
	doc["version"] = 1
	doc["timestamp"] = "2021-01-01 00:00:00"
	data, err = json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}
