package engine

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gilchrisn/graph-analytics-service/pkg/distance"
	"github.com/gilchrisn/graph-analytics-service/pkg/hierarchical"
)

// Algorithm identifies one analysis
type Algorithm string

const (
	AlgorithmHierarchical Algorithm = "HIERARCHICAL"
	AlgorithmKMeans       Algorithm = "KMEANS"
	AlgorithmCommunity    Algorithm = "COMMUNITY"
	AlgorithmAssociation  Algorithm = "ASSOCIATION"
	AlgorithmCentrality   Algorithm = "CENTRALITY"
)

// Algorithms lists every algorithm in dispatch order
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmHierarchical,
		AlgorithmKMeans,
		AlgorithmCommunity,
		AlgorithmAssociation,
		AlgorithmCentrality,
	}
}

// ParseAlgorithm accepts an algorithm name in any case
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Algorithms() {
		if alg == known {
			return alg, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
}

// Params is the parameter record of one algorithm. The concrete type selects the algorithm.
type Params interface {
	Algorithm() Algorithm
	isParams()
}

// HierarchicalParams configures HIERARCHICAL; empty fields mean euclidean/complete
type HierarchicalParams struct {
	DistanceType distance.Type        `json:"distanceType" yaml:"distanceType" validate:"omitempty,oneof=euclidean manhattan chebyshev lance"`
	Method       hierarchical.Linkage `json:"method" yaml:"method" validate:"omitempty,oneof=complete average centroid"`
}

// KMeansParams configures KMEANS
type KMeansParams struct {
	TargetType string `json:"targetType" yaml:"targetType" validate:"required"`
	K          int    `json:"k" yaml:"k" validate:"min=1"`
}

// CommunityParams configures COMMUNITY
type CommunityParams struct {
	FrontType string `json:"frontType" yaml:"frontType" validate:"required"`
	BackType  string `json:"backType" yaml:"backType" validate:"required"`
}

// AssociationParams configures ASSOCIATION
type AssociationParams struct {
	FrontType     string  `json:"frontType" yaml:"frontType" validate:"required"`
	BackType      string  `json:"backType" yaml:"backType" validate:"required"`
	MinSupport    float64 `json:"minSupport" yaml:"minSupport" validate:"gte=0,lte=1"`
	MinConfidence float64 `json:"minConfidence" yaml:"minConfidence" validate:"gte=0,lte=1"`
}

// CentralityParams configures CENTRALITY; it operates on the supplied graph only
type CentralityParams struct{}

func (HierarchicalParams) Algorithm() Algorithm { return AlgorithmHierarchical }
func (KMeansParams) Algorithm() Algorithm       { return AlgorithmKMeans }
func (CommunityParams) Algorithm() Algorithm    { return AlgorithmCommunity }
func (AssociationParams) Algorithm() Algorithm  { return AlgorithmAssociation }
func (CentralityParams) Algorithm() Algorithm   { return AlgorithmCentrality }

func (HierarchicalParams) isParams() {}
func (KMeansParams) isParams()       {}
func (CommunityParams) isParams()    {}
func (AssociationParams) isParams()  {}
func (CentralityParams) isParams()   {}

// NewParams returns a pointer to the zero parameter record of alg, ready to decode into
func NewParams(alg Algorithm) (Params, error) {
	switch alg {
	case AlgorithmHierarchical:
		return &HierarchicalParams{}, nil
	case AlgorithmKMeans:
		return &KMeansParams{}, nil
	case AlgorithmCommunity:
		return &CommunityParams{}, nil
	case AlgorithmAssociation:
		return &AssociationParams{}, nil
	case AlgorithmCentrality:
		return &CentralityParams{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%q", alg)
	}
}

// Normalize dereferences the pointers returned by NewParams so runners see value records
func Normalize(params Params) Params {
	switch p := params.(type) {
	case *HierarchicalParams:
		if p != nil {
			return *p
		}
	case *KMeansParams:
		if p != nil {
			return *p
		}
	case *CommunityParams:
		if p != nil {
			return *p
		}
	case *AssociationParams:
		if p != nil {
			return *p
		}
	case *CentralityParams:
		if p != nil {
			return *p
		}
	}
	return params
}

var validate = validator.New()

// ValidateStruct checks validate tags and reports every failing field
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Wrap(ErrInvalidParameters, err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return errors.Wrap(ErrInvalidParameters, strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
