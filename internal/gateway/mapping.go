package gateway

import (
	"errors"
	"fmt"

	"surveyassist/internal/model"
)

type classifyResponse struct {
	RequestedType string           `json:"requested_type"`
	Results       []classifyResult `json:"results"`
}

type classifyResult struct {
	Type        string              `json:"type"`
	Classified  bool                `json:"classified"`
	Followup    string              `json:"followup"`
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Candidates  []classifyCandidate `json:"candidates"`
	Reasoning   string              `json:"reasoning"`
}

type classifyCandidate struct {
	Code        string  `json:"code"`
	Descriptive string  `json:"descriptive"`
	Likelihood  float64 `json:"likelihood"`
}

// LookupResult is the response of a direct description lookup
type LookupResult struct {
	Found               bool                `json:"found"`
	Code                string              `json:"code,omitempty"`
	CodeDivision        string              `json:"code_division,omitempty"`
	PotentialCodesCount int                 `json:"potential_codes_count"`
	PotentialDivisions  []PotentialDivision `json:"potential_divisions"`
	PotentialCodes      []PotentialCode     `json:"potential_codes"`
}

// PotentialDivision is a coarse match from a description lookup
type PotentialDivision struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// PotentialCode is a fine-grained match from a description lookup
type PotentialCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// mapClassifyResponse picks the result for kind and converts it to the engine's shape
func mapClassifyResponse(kind string, resp *classifyResponse) (*model.ClassificationResult, error) {
	if len(resp.Results) == 0 {
		return nil, &GatewayError{Kind: ErrInvalidResponse, Err: errors.New("response has no results")}
	}
	chosen := resp.Results[0]
	for _, r := range resp.Results {
		if r.Type == kind {
			chosen = r
			break
		}
	}
	if chosen.Type != "" && chosen.Type != kind {
		return nil, &GatewayError{Kind: ErrInvalidResponse, Err: fmt.Errorf("no %s result in response", kind)}
	}

	result := &model.ClassificationResult{
		Kind:         kind,
		Ambiguous:    !chosen.Classified,
		Code:         chosen.Code,
		Description:  chosen.Description,
		FollowUpText: chosen.Followup,
		Reasoning:    chosen.Reasoning,
		Candidates:   make([]model.Candidate, 0, len(chosen.Candidates)),
	}
	for _, c := range chosen.Candidates {
		if c.Likelihood < 0 || c.Likelihood > 1 {
			return nil, &GatewayError{Kind: ErrInvalidResponse, Err: fmt.Errorf("candidate %s likelihood %v out of range", c.Code, c.Likelihood)}
		}
		result.Candidates = append(result.Candidates, model.Candidate{
			Code:       c.Code,
			Label:      c.Descriptive,
			Confidence: c.Likelihood,
		})
	}
	return result, nil
}
