package model

import "time"

// Candidate is one ranked classification code returned by the gateway
type Candidate struct {
	Code       string  `json:"code" bson:"code"`
	Label      string  `json:"label" bson:"label"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// ClassificationResult is the gateway response for one classification kind
type ClassificationResult struct {
	Kind         string      `json:"kind" bson:"kind"`
	Candidates   []Candidate `json:"candidates" bson:"candidates"`
	Ambiguous    bool        `json:"ambiguous" bson:"ambiguous"`
	Code         string      `json:"code,omitempty" bson:"code,omitempty"`
	Description  string      `json:"description,omitempty" bson:"description,omitempty"`
	FollowUpText string      `json:"followUpText,omitempty" bson:"followUpText,omitempty"`
	Reasoning    string      `json:"reasoning,omitempty" bson:"reasoning,omitempty"`
}

// InputField is one free-text value sent to the gateway
type InputField struct {
	Field string `json:"field" bson:"field"`
	Value string `json:"value" bson:"value"`
}

// ErrorKindNoInputs marks a lookup that was skipped because none of the
// answers feeding its kind had any content
const ErrorKindNoInputs = "no_inputs"

// Interaction records a single rule firing, successful or not
type Interaction struct {
	RuleIndex            int                   `json:"ruleIndex" bson:"ruleIndex"`
	Kind                 string                `json:"kind" bson:"kind"`
	AfterQuestionID      string                `json:"afterQuestionId" bson:"afterQuestionId"`
	Inputs               []InputField          `json:"inputs" bson:"inputs"`
	Result               *ClassificationResult `json:"result,omitempty" bson:"result,omitempty"`
	ErrorKind            string                `json:"errorKind,omitempty" bson:"errorKind,omitempty"`
	Error                string                `json:"error,omitempty" bson:"error,omitempty"`
	FollowupQuestionID   string                `json:"followupQuestionId,omitempty" bson:"followupQuestionId,omitempty"`
	FollowupQuestionName string                `json:"followupQuestionName,omitempty" bson:"followupQuestionName,omitempty"`
	FollowupQuestionText string                `json:"followupQuestionText,omitempty" bson:"followupQuestionText,omitempty"`
	FollowupResponse     string                `json:"followupResponse,omitempty" bson:"followupResponse,omitempty"`
	RequestedAt          time.Time             `json:"requestedAt" bson:"requestedAt"`
	DurationMS           int64                 `json:"durationMs" bson:"durationMs"`
}
