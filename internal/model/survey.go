package model

// Classification kinds understood by the classification gateway
const (
	ClassificationSIC = "sic" // Standard Industrial Classification
	ClassificationSOC = "soc" // Standard Occupational Classification
)

// InteractionLookupClassification is the only interaction type currently defined
const InteractionLookupClassification = "lookup_classification"

// SurveyDocument is the survey definition as read from JSON or YAML
type SurveyDocument struct {
	SurveyTitle  string              `json:"survey_title" yaml:"survey_title" validate:"required"`
	Questions    []Question          `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
	SurveyAssist *SurveyAssistConfig `json:"survey_assist,omitempty" yaml:"survey_assist,omitempty" validate:"omitempty"`
}

// SurveyAssistConfig controls consent and AI-assisted follow-ups
type SurveyAssistConfig struct {
	Enabled             bool              `json:"enabled" yaml:"enabled"`
	QuestionAssistLabel string            `json:"question_assist_label" yaml:"question_assist_label"`
	Consent             ConsentConfig     `json:"consent" yaml:"consent"`
	Interactions        []InteractionRule `json:"interactions" yaml:"interactions" validate:"dive"`
}

// ConsentConfig describes the consent prompt shown before the first interaction
type ConsentConfig struct {
	Required          bool             `json:"required" yaml:"required"`
	QuestionID        string           `json:"question_id" yaml:"question_id"`
	Title             string           `json:"title" yaml:"title"`
	QuestionName      string           `json:"question_name" yaml:"question_name"`
	QuestionText      string           `json:"question_text" yaml:"question_text"`
	JustificationText string           `json:"justification_text" yaml:"justification_text"`
	PlaceholderReason string           `json:"placeholder_reason" yaml:"placeholder_reason"`
	MaxFollowup       int              `json:"max_followup" yaml:"max_followup"`
	ResponseOptions   []ResponseOption `json:"response_options,omitempty" yaml:"response_options,omitempty" validate:"dive"`
}

// InteractionRule triggers a classification call after an anchor question is answered
type InteractionRule struct {
	AfterQuestionID string         `json:"after_question_id" yaml:"after_question_id" validate:"required"`
	Type            string         `json:"type" yaml:"type" validate:"required"`
	Param           string         `json:"param" yaml:"param" validate:"required"`
	FollowUp        FollowUpPolicy `json:"follow_up" yaml:"follow_up"`
}

// FollowUpPolicy decides whether and where a follow-up may be shown
type FollowUpPolicy struct {
	Allowed      bool         `json:"allowed" yaml:"allowed"`
	Presentation Presentation `json:"presentation" yaml:"presentation"`
}

// Presentation places a follow-up in the flow
type Presentation struct {
	Immediate       bool   `json:"immediate" yaml:"immediate"`
	AfterQuestionID string `json:"after_question_id" yaml:"after_question_id"` // "" with immediate=false means after the next static question
}
