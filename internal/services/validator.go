package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// ErrValidation can be used with errors.Is to detect scorer payloads that do
// not match the score schema.
var ErrValidation = errors.New("validation failed")

const scoreSchemaID = "https://landclearing.dev/schemas/score.v1.json"

// scoreSchema is the wire contract of the external fitness scorer.
const scoreSchema = `{
	"type": "object",
	"required": ["skillMatch", "reliability", "experience", "location", "overall"],
	"properties": {
		"skillMatch":    {"type": "number", "minimum": 0, "maximum": 100},
		"reliability":   {"type": "number", "minimum": 0, "maximum": 100},
		"experience":    {"type": "number", "minimum": 0, "maximum": 100},
		"location":      {"type": "number", "minimum": 0, "maximum": 100},
		"overall":       {"type": "number", "minimum": 0, "maximum": 100},
		"estimatedCost": {"type": ["number", "null"], "minimum": 0}
	}
}`

// ScoreValidator checks raw scorer responses before they are trusted.
type ScoreValidator struct {
	schema *jsonschema.Schema
}

// NewScoreValidator compiles the embedded score schema.
func NewScoreValidator() (*ScoreValidator, error) {
	schema, err := jsonschema.CompileString(scoreSchemaID, scoreSchema)
	if err != nil {
		return nil, fmt.Errorf("compile score schema: %w", err)
	}
	return &ScoreValidator{schema: schema}, nil
}

// Decode validates body against the score schema and decodes it.
func (v *ScoreValidator) Decode(body []byte) (*models.Score, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrValidation, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var score models.Score
	if err := json.Unmarshal(body, &score); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &score, nil
}
