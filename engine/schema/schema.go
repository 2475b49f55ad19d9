package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

type Schema map[string]any
type Result = jsonschema.EvaluationResult

// Parse decodes a raw JSON schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &s, nil
}

func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

// -----------------------------------------------------------------------------
// Failures
// -----------------------------------------------------------------------------

// Failure is one keyword-level error found anywhere in an evaluation tree.
type Failure struct {
	Keyword          string
	Code             string
	Message          string
	InstanceLocation string
	EvaluationPath   string
	Params           map[string]any
}

// Failures flattens the evaluation tree into its keyword errors, ordered by
// instance location and keyword.
func Failures(result *Result) []Failure {
	if result == nil {
		return nil
	}
	var out []Failure
	collectFailures(result, "", &out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].InstanceLocation != out[j].InstanceLocation {
			return out[i].InstanceLocation < out[j].InstanceLocation
		}
		if out[i].Keyword != out[j].Keyword {
			return out[i].Keyword < out[j].Keyword
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func collectFailures(result *Result, parent string, out *[]Failure) {
	if result.Valid {
		return
	}
	location := joinLocation(parent, result.InstanceLocation)
	for keyword, evalErr := range result.Errors {
		if evalErr == nil {
			continue
		}
		f := Failure{
			Keyword:          evalErr.Keyword,
			Code:             evalErr.Code,
			Message:          evalErr.Error(),
			InstanceLocation: location,
			EvaluationPath:   result.EvaluationPath,
			Params:           evalErr.Params,
		}
		if f.Keyword == "" {
			f.Keyword = keyword
		}
		*out = append(*out, f)
	}
	for _, detail := range result.Details {
		if detail != nil {
			collectFailures(detail, location, out)
		}
	}
}

// joinLocation resolves a detail's instance location against its parent's;
// details may carry either an absolute pointer or one relative to the parent.
func joinLocation(parent, location string) string {
	location = strings.TrimPrefix(location, "#")
	switch {
	case location == "" || location == "/":
		return parent
	case parent == "":
		return location
	case location == parent || strings.HasPrefix(location, parent+"/"):
		return location
	default:
		return parent + "/" + strings.TrimPrefix(location, "/")
	}
}
