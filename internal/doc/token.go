// Package doc exposes structured documents (JSON and YAML) as a flat stream of
// tokens, so that a component can parse its own fragment of a larger document
// without knowing the document's schema.
package doc

// Token identifies the kind of the token a Reader is positioned on.
type Token int

// Token kinds.
const (
	TokenNone Token = iota
	TokenStartObject
	TokenEndObject
	TokenStartArray
	TokenEndArray
	TokenFieldName
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

var tokenNames = map[Token]string{
	TokenNone:        "NONE",
	TokenStartObject: "START_OBJECT",
	TokenEndObject:   "END_OBJECT",
	TokenStartArray:  "START_ARRAY",
	TokenEndArray:    "END_ARRAY",
	TokenFieldName:   "FIELD_NAME",
	TokenString:      "VALUE_STRING",
	TokenNumber:      "VALUE_NUMBER",
	TokenBool:        "VALUE_BOOLEAN",
	TokenNull:        "VALUE_NULL",
}

func (t Token) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsValue reports whether the token is a scalar value.
func (t Token) IsValue() bool {
	switch t {
	case TokenString, TokenNumber, TokenBool, TokenNull:
		return true
	}
	return false
}

// Reader is a forward-only token stream over a structured document.
type Reader interface {
	// NextToken advances to the next token. It returns io.EOF once the
	// document is exhausted.
	NextToken() (Token, error)
	// CurrentName returns the most recent field name seen at the current
	// nesting level.
	CurrentName() string
	// Text returns the textual form of the current scalar or field name.
	Text() string
}
