package action

import (
	"errors"
	"fmt"

	"github.com/shaharia-lab/alertmail/internal/doc"
)

// ErrMalformedDefinition matches every *MalformedDefinitionError.
var ErrMalformedDefinition = errors.New("malformed action definition")

// MalformedDefinitionError is returned when an action fragment contains an
// unknown field, a value of the wrong shape, or ends prematurely.
type MalformedDefinitionError struct {
	Field string
	Token doc.Token
	Err   error
}

func (e *MalformedDefinitionError) Error() string {
	var msg string
	switch {
	case e.Token != doc.TokenNone && e.Field != "":
		msg = fmt.Sprintf("unexpected token [%s] for field [%s]", e.Token, e.Field)
	case e.Token != doc.TokenNone:
		msg = fmt.Sprintf("unexpected token [%s]", e.Token)
	case e.Field != "":
		msg = fmt.Sprintf("unexpected field [%s]", e.Field)
	default:
		msg = "invalid fragment"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return ErrMalformedDefinition.Error() + ": " + msg
}

// Is reports whether target is ErrMalformedDefinition.
func (e *MalformedDefinitionError) Is(target error) bool {
	return target == ErrMalformedDefinition
}

func (e *MalformedDefinitionError) Unwrap() error { return e.Err }
