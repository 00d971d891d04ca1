// Package classifier holds the label rules of the classification service and
// the HTTP client the API uses to reach it.
package classifier

import (
	"strings"

	"github.com/geocoder89/photohub/internal/domain/submission"
)

const (
	LabelMinor     = "minor"
	LabelTechnical = "technical"
	LabelCategoryF = "category-f"
	LabelStandard  = "standard"

	// returned by the client when the service answers without a label
	LabelUnknown = "unknown"
)

type rule struct {
	label string
	match func(submission.Metadata) bool
}

// evaluated in order, first match wins
var rules = []rule{
	{LabelMinor, func(m submission.Metadata) bool { return m.Age < 18 }},
	{LabelTechnical, func(m submission.Metadata) bool {
		return m.Description != nil && strings.Contains(strings.ToLower(*m.Description), "engineer")
	}},
	{LabelCategoryF, func(m submission.Metadata) bool {
		return strings.HasPrefix(strings.ToLower(m.Gender), "f")
	}},
}

func Classify(m submission.Metadata) string {
	for _, r := range rules {
		if r.match(m) {
			return r.label
		}
	}
	return LabelStandard
}
