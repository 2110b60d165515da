package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"surveyassist/internal/model"
)

// prompter asks the respondent a single question
type prompter interface {
	Ask(q model.Question) (string, error)
}

// newPrompter is swapped out in tests
var newPrompter = func() prompter { return huhPrompter{} }

type huhPrompter struct{}

func (huhPrompter) Ask(q model.Question) (string, error) {
	var value string
	var field huh.Field

	switch q.ResponseType {
	case model.ResponseRadio, model.ResponseSelect:
		options := make([]huh.Option[string], 0, len(q.ResponseOptions))
		for _, opt := range q.ResponseOptions {
			options = append(options, huh.NewOption(opt.Label.Text, opt.Value))
		}
		field = huh.NewSelect[string]().
			Title(q.QuestionText).
			Description(q.QuestionDescription).
			Options(options...).
			Value(&value)
	case model.ResponseTextarea:
		field = huh.NewText().
			Title(q.QuestionText).
			Description(q.QuestionDescription).
			Validate(required).
			Value(&value)
	default:
		field = huh.NewInput().
			Title(q.QuestionText).
			Description(q.QuestionDescription).
			Validate(required).
			Value(&value)
	}

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return "", err
	}
	return value, nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("an answer is required")
	}
	return nil
}
