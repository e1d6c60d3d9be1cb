package action

import (
	"errors"
	"fmt"
	"io"

	"github.com/shaharia-lab/alertmail/internal/doc"
)

const (
	fieldDisplay   = "display"
	fieldAddresses = "addresses"
)

// ParseSMTPAction reads an e-mail action from r. The reader must be positioned
// on the fragment's start-object token; on success it is left on the matching
// end-object token and nothing past it has been consumed.
func ParseSMTPAction(r doc.Reader) (*SMTPAction, error) {
	var (
		display    *string
		recipients = []string{}
		field      string
	)

	for {
		tok, err := r.NextToken()
		if err != nil {
			return nil, &MalformedDefinitionError{Field: field, Err: readErr(err)}
		}

		switch {
		case tok == doc.TokenEndObject:
			return NewSMTPAction(display, recipients), nil

		case tok == doc.TokenFieldName:
			field = r.CurrentName()
			if field != fieldDisplay && field != fieldAddresses {
				return nil, &MalformedDefinitionError{Field: field}
			}

		case tok.IsValue():
			if field != fieldDisplay {
				return nil, &MalformedDefinitionError{Field: field, Token: tok}
			}
			if tok == doc.TokenNull {
				display = nil
				continue
			}
			text := r.Text()
			display = &text

		case tok == doc.TokenStartArray:
			if field != fieldAddresses {
				return nil, &MalformedDefinitionError{Field: field, Token: tok}
			}
			addrs, err := parseAddresses(r)
			if err != nil {
				return nil, err
			}
			recipients = append(recipients, addrs...)

		default:
			return nil, &MalformedDefinitionError{Field: field, Token: tok}
		}
	}
}

// parseAddresses consumes array elements up to and including the end-array token.
func parseAddresses(r doc.Reader) ([]string, error) {
	var addrs []string
	for {
		tok, err := r.NextToken()
		if err != nil {
			return nil, &MalformedDefinitionError{Field: fieldAddresses, Err: readErr(err)}
		}
		switch {
		case tok == doc.TokenEndArray:
			return addrs, nil
		case tok.IsValue() && tok != doc.TokenNull:
			addrs = append(addrs, r.Text())
		default:
			return nil, &MalformedDefinitionError{Field: fieldAddresses, Token: tok}
		}
	}
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("fragment ended before its closing token: %w", io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("reading token: %w", err)
}
