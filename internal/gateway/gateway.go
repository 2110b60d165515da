// Package gateway talks to the external classification service.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"surveyassist/internal/model"
)

// Classifier is the contract the flow engine depends on. Implementations
// make a single attempt per call and never retry.
type Classifier interface {
	Lookup(ctx context.Context, kind string, fields []model.InputField) (*model.ClassificationResult, error)
}

// ErrorKind classifies gateway failures
type ErrorKind string

const (
	ErrTimeout         ErrorKind = "timeout"
	ErrUnavailable     ErrorKind = "unavailable"
	ErrInvalidResponse ErrorKind = "invalid_response"
)

// ErrGateway matches every GatewayError via errors.Is
var ErrGateway = errors.New("classification gateway error")

// GatewayError is returned for any failed classification call
type GatewayError struct {
	Kind ErrorKind
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("classification gateway %s", e.Kind)
	}
	return fmt.Sprintf("classification gateway %s: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrGateway
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// KindOf returns the failure kind of err, or "" when err is not a GatewayError
func KindOf(err error) ErrorKind {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return ""
}
