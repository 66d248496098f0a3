package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/happyhackingspace/textcat/internal/vectorizer"
	"github.com/happyhackingspace/textcat/linear"
	"github.com/happyhackingspace/textcat/transform"
)

// ClassifierLinear is the only supported "classifier_type".
const ClassifierLinear = "LINEAR"

// Errors returned by Parse, wrapped with details.
var (
	ErrInvalidDocument       = errors.New("invalid model document")
	ErrMissingField          = errors.New("missing or invalid field")
	ErrInvalidParams         = errors.New("invalid transformation params")
	ErrUnsupportedClassifier = errors.New("unsupported classifier type")
	ErrMissingWeights        = errors.New("class has no weights")
	ErrBiasMismatch          = errors.New("biases do not match classes")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// document mirrors the model JSON. Pointers distinguish absent keys from zero values.
type document struct {
	Version         *int                `json:"version" validate:"required,min=0,max=65535"`
	Timestamp       *string             `json:"timestamp" validate:"required"`
	Locale          *string             `json:"locale" validate:"required"`
	Transformations []transformationDoc `json:"transformations" validate:"required,dive"`
	Classifier      *classifierDoc      `json:"classifier" validate:"required"`
}

type transformationDoc struct {
	TransformationType *string     `json:"transformation_type" validate:"required"`
	Params             *hashParams `json:"params,omitempty" validate:"-"`
}

type hashParams struct {
	NumBuckets  *int  `json:"num_buckets" validate:"required,gt=0"`
	NgramsRange []int `json:"ngrams_range" validate:"required,min=1,dive,gt=0"`
}

type classifierDoc struct {
	ClassifierType *string              `json:"classifier_type" validate:"required"`
	Classes        []string             `json:"classes" validate:"required"`
	ClassWeights   map[string][]float64 `json:"class_weights" validate:"required"`
	Biases         []float64            `json:"biases" validate:"required"`
}

// Parse decodes a model document into Info. Any problem fails the whole parse.
func Parse(data string) (Info, error) {
	if strings.TrimSpace(data) == "" {
		return Info{}, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}

	var doc document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := validateStruct(doc); err != nil {
		return Info{}, err
	}

	chain, err := parseTransformations(doc.Transformations)
	if err != nil {
		return Info{}, err
	}
	model, err := parseClassifier(doc.Classifier)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Version:         uint16(*doc.Version),
		Timestamp:       *doc.Timestamp,
		Locale:          *doc.Locale,
		Transformations: chain,
		Model:           model,
	}, nil
}

func parseTransformations(docs []transformationDoc) (transform.Chain, error) {
	chain := make(transform.Chain, 0, len(docs))
	for i, td := range docs {
		switch transform.Type(*td.TransformationType) {
		case transform.TypeLowercase:
			chain = append(chain, transform.Lowercase{})
		case transform.TypeNormalization:
			chain = append(chain, transform.Normalization{})
		case transform.TypeHashedNGrams:
			if td.Params == nil {
				return nil, fmt.Errorf("%w: transformations[%d]: params", ErrMissingField, i)
			}
			if err := validate.Struct(td.Params); err != nil {
				return nil, fmt.Errorf("%w: transformations[%d]: %v", ErrInvalidParams, i, err)
			}
			chain = append(chain, transform.NewHashedNGrams(vectorizer.HashConfig{
				Buckets:        *td.Params.NumBuckets,
				SubstringSizes: td.Params.NgramsRange,
			}))
		default:
			// unknown transformations are skipped
		}
	}
	return chain, nil
}

func parseClassifier(cd *classifierDoc) (*linear.Model, error) {
	if *cd.ClassifierType != ClassifierLinear {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedClassifier, *cd.ClassifierType)
	}
	if len(cd.Biases) != len(cd.Classes) {
		return nil, fmt.Errorf("%w: %d biases for %d classes", ErrBiasMismatch, len(cd.Biases), len(cd.Classes))
	}

	weights := make(map[string]vectorizer.SparseVector, len(cd.Classes))
	biases := make(map[string]float64, len(cd.Classes))
	for i, cls := range cd.Classes {
		w, ok := cd.ClassWeights[cls]
		if !ok || w == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingWeights, cls)
		}
		weights[cls] = vectorizer.FromDense(w)
		biases[cls] = cd.Biases[i]
	}
	return linear.New(weights, biases), nil
}

func validateStruct(doc document) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = strings.TrimPrefix(fe.Namespace(), "document.")
		}
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
}

// encode converts Info back into the document form.
func encode(info Info) document {
	version := int(info.Version)
	timestamp := info.Timestamp
	locale := info.Locale
	classifierType := ClassifierLinear

	doc := document{
		Version:         &version,
		Timestamp:       &timestamp,
		Locale:          &locale,
		Transformations: make([]transformationDoc, 0, len(info.Transformations)),
		Classifier: &classifierDoc{
			ClassifierType: &classifierType,
			Classes:        []string{},
			ClassWeights:   map[string][]float64{},
			Biases:         []float64{},
		},
	}

	for _, tr := range info.Transformations {
		tp := string(tr.Type())
		td := transformationDoc{TransformationType: &tp}
		if h, ok := tr.(transform.HashedNGrams); ok {
			cfg := h.Config()
			td.Params = &hashParams{NumBuckets: &cfg.Buckets, NgramsRange: cfg.SubstringSizes}
		}
		doc.Transformations = append(doc.Transformations, td)
	}

	if info.Model != nil {
		for _, cls := range info.Model.Classes() {
			w, _ := info.Model.Weights(cls)
			doc.Classifier.Classes = append(doc.Classifier.Classes, cls)
			doc.Classifier.ClassWeights[cls] = w.ToDense()
			doc.Classifier.Biases = append(doc.Classifier.Biases, info.Model.Bias(cls))
		}
	}
	return doc
}
