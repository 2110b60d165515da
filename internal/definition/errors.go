package definition

import (
	"errors"
	"strings"
)

// ErrInvalidDefinition matches every DefinitionError via errors.Is
var ErrInvalidDefinition = errors.New("invalid survey definition")

// DefinitionError lists every problem found while loading a definition.
// A definition that produces one is never partially usable.
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	if len(e.Problems) == 0 {
		return ErrInvalidDefinition.Error()
	}
	return ErrInvalidDefinition.Error() + ": " + strings.Join(e.Problems, "; ")
}

// Is reports whether target is ErrInvalidDefinition
func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
