package definition

import "surveyassist/internal/model"

// Consent answer values
const (
	ConsentYes = "yes"
	ConsentNo  = "no"
)

// Definition is a validated, read-only survey definition shared by all sessions
type Definition struct {
	title       string
	questions   []model.Question
	index       map[string]int
	assist      model.SurveyAssistConfig
	hasAssist   bool
	consent     model.Question
	rules       []Rule
	byAnchor    map[string][]Rule
	placeholder map[string]string // question id -> id of the question supplying PLACEHOLDER_TEXT
}

// Title returns the survey title
func (d *Definition) Title() string {
	return d.title
}

// Len returns the number of static questions
func (d *Definition) Len() int {
	return len(d.questions)
}

// Questions returns the static questions in definition order
func (d *Definition) Questions() []model.Question {
	out := make([]model.Question, len(d.questions))
	for i, q := range d.questions {
		out[i] = q.Clone()
	}
	return out
}

// At returns the static question at position i
func (d *Definition) At(i int) model.Question {
	return d.questions[i].Clone()
}

// Question looks up a static question by id
func (d *Definition) Question(id string) (model.Question, bool) {
	i, ok := d.index[id]
	if !ok {
		return model.Question{}, false
	}
	return d.questions[i].Clone(), true
}

// Index returns the position of a static question, or -1
func (d *Definition) Index(id string) int {
	if i, ok := d.index[id]; ok {
		return i
	}
	return -1
}

// InteractionsAfter returns the rules anchored on questionID in list order
func (d *Definition) InteractionsAfter(questionID string) []Rule {
	if !d.AssistEnabled() {
		return nil
	}
	rules := d.byAnchor[questionID]
	if len(rules) == 0 {
		return nil
	}
	return append([]Rule(nil), rules...)
}

// Rules returns every interaction rule in list order
func (d *Definition) Rules() []Rule {
	return append([]Rule(nil), d.rules...)
}

// AssistEnabled reports whether survey assist interactions may run at all
func (d *Definition) AssistEnabled() bool {
	return d.hasAssist && d.assist.Enabled
}

// AssistLabel is appended to assist-generated questions in summaries
func (d *Definition) AssistLabel() string {
	return d.assist.QuestionAssistLabel
}

// ConsentRequired reports whether consent must be granted before interactions fire
func (d *Definition) ConsentRequired() bool {
	return d.AssistEnabled() && d.assist.Consent.Required
}

// MaxFollowup is the per-session follow-up budget
func (d *Definition) MaxFollowup() int {
	return d.assist.Consent.MaxFollowup
}

// ConsentConfig returns the consent configuration as declared
func (d *Definition) ConsentConfig() model.ConsentConfig {
	return d.assist.Consent
}

// ConsentQuestion returns the consent prompt as a closed-choice question.
// Its text still carries the consent placeholders.
func (d *Definition) ConsentQuestion() model.Question {
	return d.consent.Clone()
}

// PlaceholderSource returns the question whose answer fills PLACEHOLDER_TEXT in questionID
func (d *Definition) PlaceholderSource(questionID string) (string, bool) {
	src, ok := d.placeholder[questionID]
	return src, ok
}
