package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"surveyassist/internal/model"
)

// Format is the encoding of a definition document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadFile reads a definition, choosing YAML for .yaml/.yml and JSON otherwise
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey definition %s: %w", path, err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return Parse(data, format)
}

// Load reads a JSON definition from r
func Load(r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey definition: %w", err)
	}
	return Parse(data, FormatJSON)
}

// Parse decodes and validates a definition document
func Parse(data []byte, format Format) (*Definition, error) {
	var doc model.SurveyDocument
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &DefinitionError{Problems: []string{"invalid YAML: " + err.Error()}}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, &DefinitionError{Problems: []string{"invalid JSON: " + err.Error()}}
		}
	}
	return New(doc)
}

// New validates doc and builds the immutable definition
func New(doc model.SurveyDocument) (*Definition, error) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &DefinitionError{Problems: []string{err.Error()}}
		}
		for _, fe := range verrs {
			addf("%s: failed %q validation", trimNamespace(fe.Namespace()), fe.Tag())
		}
	}

	d := &Definition{
		title:       doc.SurveyTitle,
		index:       make(map[string]int, len(doc.Questions)),
		byAnchor:    make(map[string][]Rule),
		placeholder: make(map[string]string),
	}

	responseKeys := make(map[string]string) // response key -> question id, earlier questions only
	for i, q := range doc.Questions {
		path := fmt.Sprintf("questions[%d]", i)
		if q.QuestionID != "" {
			if _, dup := d.index[q.QuestionID]; dup {
				addf("%s: duplicate question_id %q", path, q.QuestionID)
			} else {
				d.index[q.QuestionID] = i
			}
		}
		if q.ResponseType != "" && !q.ResponseType.IsKnown() {
			addf("%s: unknown response_type %q", path, q.ResponseType)
		}
		if q.ResponseType.IsClosedChoice() {
			problems = append(problems, checkOptions(path, q.ResponseOptions)...)
		}
		for _, kind := range q.UsedForClassifications {
			if !IsKnownKind(kind) {
				addf("%s: unknown classification kind %q in used_for_classifications", path, kind)
			}
		}
		if q.PlaceholderField != "" {
			src, ok := responseKeys[q.PlaceholderField]
			if !ok {
				addf("%s: placeholder_field %q does not name an earlier question", path, q.PlaceholderField)
			} else {
				d.placeholder[q.QuestionID] = src
			}
		}
		responseKeys[q.ResponseKey()] = q.QuestionID
		d.questions = append(d.questions, q.Clone())
	}

	if doc.SurveyAssist != nil {
		d.hasAssist = true
		d.assist = *doc.SurveyAssist
		problems = append(problems, d.buildAssist()...)
	}

	if len(problems) > 0 {
		return nil, &DefinitionError{Problems: problems}
	}
	return d, nil
}

func (d *Definition) buildAssist() []string {
	var problems []string
	consent := d.assist.Consent

	if consent.MaxFollowup < 0 {
		problems = append(problems, "survey_assist.consent.max_followup must be >= 0")
	}
	if consent.Required {
		if consent.QuestionID == "" {
			problems = append(problems, "survey_assist.consent.question_id is required when consent is required")
		}
		if consent.QuestionText == "" {
			problems = append(problems, "survey_assist.consent.question_text is required when consent is required")
		}
	}
	if _, clash := d.index[consent.QuestionID]; clash && consent.QuestionID != "" {
		problems = append(problems, fmt.Sprintf("survey_assist.consent.question_id %q collides with a static question", consent.QuestionID))
	}

	options := consent.ResponseOptions
	if len(options) == 0 {
		options = []model.ResponseOption{
			{ID: "consent-yes", Label: model.OptionLabel{Text: "Yes"}, Value: ConsentYes},
			{ID: "consent-no", Label: model.OptionLabel{Text: "No"}, Value: ConsentNo},
		}
	} else if !consentOptionsValid(options) {
		problems = append(problems, `survey_assist.consent.response_options must have exactly the values "yes" and "no"`)
	}
	name := consent.QuestionName
	if name == "" {
		name = "survey_assist_consent"
	}
	d.consent = model.Question{
		QuestionID:        consent.QuestionID,
		QuestionName:      name,
		Title:             consent.Title,
		QuestionText:      consent.QuestionText,
		ResponseType:      model.ResponseRadio,
		ResponseName:      strings.ReplaceAll(name, "_", "-"),
		ResponseOptions:   options,
		JustificationText: consent.JustificationText,
		ButtonText:        "Save and continue",
	}

	for i, ir := range d.assist.Interactions {
		path := fmt.Sprintf("survey_assist.interactions[%d]", i)
		if _, ok := d.index[ir.AfterQuestionID]; !ok && ir.AfterQuestionID != "" {
			problems = append(problems, fmt.Sprintf("%s: after_question_id %q does not exist", path, ir.AfterQuestionID))
		}
		if target := ir.FollowUp.Presentation.AfterQuestionID; target != "" {
			if _, ok := d.index[target]; !ok {
				problems = append(problems, fmt.Sprintf("%s: follow_up.presentation.after_question_id %q does not exist", path, target))
			}
		}
		action, err := actionFor(ir)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		rule := Rule{
			Index:           i,
			AfterQuestionID: ir.AfterQuestionID,
			Action:          action,
			FollowUp:        ir.FollowUp,
		}
		d.rules = append(d.rules, rule)
		d.byAnchor[rule.AfterQuestionID] = append(d.byAnchor[rule.AfterQuestionID], rule)
	}
	return problems
}

func checkOptions(path string, options []model.ResponseOption) []string {
	if len(options) == 0 {
		return []string{path + ": closed-choice question needs at least one response option"}
	}
	var problems []string
	seen := make(map[string]bool, len(options))
	for j, opt := range options {
		if opt.Value == "" {
			continue // reported by the validator
		}
		if seen[opt.Value] {
			problems = append(problems, fmt.Sprintf("%s.response_options[%d]: duplicate value %q", path, j, opt.Value))
		}
		seen[opt.Value] = true
	}
	return problems
}

func consentOptionsValid(options []model.ResponseOption) bool {
	if len(options) != 2 {
		return false
	}
	values := map[string]bool{options[0].Value: true, options[1].Value: true}
	return values[ConsentYes] && values[ConsentNo]
}

func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
