package flow

import (
	"errors"
	"fmt"

	"surveyassist/internal/model"
)

var (
	// ErrOutOfSequence matches every OutOfSequenceError via errors.Is
	ErrOutOfSequence = errors.New("answer out of sequence")
	// ErrInvalidAnswer matches every InvalidAnswerError via errors.Is
	ErrInvalidAnswer = errors.New("invalid answer")
)

// OutOfSequenceError means the submitted question is not the pending one.
// The session is left unchanged.
type OutOfSequenceError struct {
	QuestionID string
	Expected   string // "" when nothing is pending
	State      model.FlowState
}

func (e *OutOfSequenceError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("%s: got %q while session is %s", ErrOutOfSequence, e.QuestionID, e.State)
	}
	return fmt.Sprintf("%s: got %q, expected %q", ErrOutOfSequence, e.QuestionID, e.Expected)
}

// Is reports whether target is ErrOutOfSequence
func (e *OutOfSequenceError) Is(target error) bool {
	return target == ErrOutOfSequence
}

// InvalidAnswerError means the value failed validation. Question is the
// pending question to present again.
type InvalidAnswerError struct {
	QuestionID string
	Reason     string
	Question   *model.Question
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("%s for %q: %s", ErrInvalidAnswer, e.QuestionID, e.Reason)
}

// Is reports whether target is ErrInvalidAnswer
func (e *InvalidAnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}
