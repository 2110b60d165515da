package model

// ResponseType defines how a question is answered
type ResponseType string

const (
	ResponseRadio    ResponseType = "radio"    // Single choice, value must match an option
	ResponseSelect   ResponseType = "select"   // Single choice rendered as a dropdown
	ResponseText     ResponseType = "text"     // Free text, never empty
	ResponseTextarea ResponseType = "textarea" // Multi-line free text, never empty
)

// IsClosedChoice reports whether answers must match one of the declared options
func (t ResponseType) IsClosedChoice() bool {
	return t == ResponseRadio || t == ResponseSelect
}

// IsKnown reports whether t is a supported response type
func (t ResponseType) IsKnown() bool {
	switch t {
	case ResponseRadio, ResponseSelect, ResponseText, ResponseTextarea:
		return true
	}
	return false
}

// OptionLabel is the display text of a response option
type OptionLabel struct {
	Text string `json:"text" yaml:"text" bson:"text" validate:"required"`
}

// ResponseOption is a single choice of a closed-choice question
type ResponseOption struct {
	ID    string      `json:"id" yaml:"id" bson:"id"`
	Label OptionLabel `json:"label" yaml:"label" bson:"label"`
	Value string      `json:"value" yaml:"value" bson:"value" validate:"required"`
}

// Question is a question as declared in the survey definition document.
// Dynamic follow-ups reuse the same shape so the transport layer renders both alike.
type Question struct {
	QuestionID             string           `json:"question_id" yaml:"question_id" bson:"questionId" validate:"required"`
	QuestionName           string           `json:"question_name" yaml:"question_name" bson:"questionName" validate:"required"`
	Title                  string           `json:"title" yaml:"title" bson:"title"`
	QuestionText           string           `json:"question_text" yaml:"question_text" bson:"questionText" validate:"required"`
	QuestionDescription    string           `json:"question_description" yaml:"question_description" bson:"questionDescription,omitempty"`
	ResponseType           ResponseType     `json:"response_type" yaml:"response_type" bson:"responseType" validate:"required"`
	ResponseName           string           `json:"response_name" yaml:"response_name" bson:"responseName"`
	ResponseOptions        []ResponseOption `json:"response_options" yaml:"response_options" bson:"responseOptions,omitempty" validate:"dive"`
	JustificationText      string           `json:"justification_text" yaml:"justification_text" bson:"justificationText,omitempty"`
	PlaceholderField       string           `json:"placeholder_field" yaml:"placeholder_field" bson:"placeholderField,omitempty"`
	ButtonText             string           `json:"button_text" yaml:"button_text" bson:"buttonText,omitempty"`
	UsedForClassifications []string         `json:"used_for_classifications" yaml:"used_for_classifications" bson:"usedForClassifications,omitempty"`
}

// ResponseKey is the name an answer is filed under when referenced by other
// questions or sent to the classification gateway, e.g. "job-title" -> "job_title".
func (q *Question) ResponseKey() string {
	name := q.ResponseName
	if name == "" {
		name = q.QuestionName
	}
	out := []byte(name)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}

// HasOption reports whether value equals one of the declared option values (case-sensitive)
func (q *Question) HasOption(value string) bool {
	for _, opt := range q.ResponseOptions {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// FeedsClassification reports whether the answer to q is sent for the given kind
func (q *Question) FeedsClassification(kind string) bool {
	for _, k := range q.UsedForClassifications {
		if k == kind {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't mutate shared definition state
func (q Question) Clone() Question {
	if q.ResponseOptions != nil {
		q.ResponseOptions = append([]ResponseOption(nil), q.ResponseOptions...)
	}
	if q.UsedForClassifications != nil {
		q.UsedForClassifications = append([]string(nil), q.UsedForClassifications...)
	}
	return q
}
