package dialogue

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"subsidy-concierge/internal/common/errors"
	"subsidy-concierge/internal/common/llm"
	"subsidy-concierge/internal/models"
)

// turnPayload is what the oracle returns for greeting and discovery turns.
type turnPayload struct {
	Response             string                `json:"response"`
	QuickOptions         []models.QuickOption  `json:"quickOptions"`
	AllowMultiSelect     bool                  `json:"allowMultiSelect"`
	MultipleSearchParams []models.SearchParams `json:"multipleSearchParams"`
	ShouldSearch         bool                  `json:"shouldSearch"`
	UserNeeds            string                `json:"userNeeds"`
	CurrentStage         string                `json:"currentStage"`
}

// analysisPayload is the oracle's ranking commentary over search results.
type analysisPayload struct {
	Response             string                  `json:"response"`
	RecommendedSubsidies []models.Recommendation `json:"recommendedSubsidies"`
}

const turnSchema = `{
	"type": "object",
	"required": ["response"],
	"properties": {
		"response": {"type": "string", "minLength": 1},
		"quickOptions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["label", "value"],
				"properties": {
					"label": {"type": "string"},
					"value": {"type": "string"}
				}
			}
		},
		"allowMultiSelect": {"type": "boolean"},
		"shouldSearch": {"type": "boolean"},
		"userNeeds": {"type": "string"},
		"currentStage": {"type": "string"}
	}
}`

const analysisSchema = `{
	"type": "object",
	"required": ["response", "recommendedSubsidies"],
	"properties": {
		"response": {"type": "string", "minLength": 1},
		"recommendedSubsidies": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "title", "reason"],
				"properties": {
					"id": {"type": "string"},
					"title": {"type": "string"},
					"reason": {"type": "string"},
					"priority": {"type": "integer"}
				}
			}
		}
	}
}`

// parseTurnPayload extracts and validates a discovery-turn response. Any
// shape problem returns an ORACLE_SHAPE_ERROR so the caller can fall back.
func parseTurnPayload(raw string) (*turnPayload, error) {
	cleaned := llm.ExtractJSON(raw)
	if err := validateAgainst(turnSchema, cleaned); err != nil {
		return nil, err
	}

	var payload turnPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.NewOracleShapeError(err.Error())
	}
	return &payload, nil
}

func parseAnalysisPayload(raw string) (*analysisPayload, error) {
	cleaned := llm.ExtractJSON(raw)
	if err := validateAgainst(analysisSchema, cleaned); err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.NewOracleShapeError(err.Error())
	}
	return &payload, nil
}

func validateAgainst(schema, document string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewOracleShapeError(err.Error())
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return errors.NewOracleShapeError(strings.Join(errs, "; "))
	}

	return nil
}
