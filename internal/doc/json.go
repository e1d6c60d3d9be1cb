package doc

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type jsonFrame struct {
	object    bool
	expectKey bool
	name      string
}

// jsonReader adapts encoding/json's streaming tokenizer to the Reader interface.
type jsonReader struct {
	dec   *json.Decoder
	stack []jsonFrame
	text  string
}

// NewJSONReader returns a Reader over the JSON document read from r.
func NewJSONReader(r io.Reader) Reader {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonReader{dec: dec}
}

func (r *jsonReader) NextToken() (Token, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return TokenNone, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			r.valueConsumed()
			r.stack = append(r.stack, jsonFrame{object: true, expectKey: true})
			return TokenStartObject, nil
		case '[':
			r.valueConsumed()
			r.stack = append(r.stack, jsonFrame{})
			return TokenStartArray, nil
		case '}':
			r.pop()
			return TokenEndObject, nil
		case ']':
			r.pop()
			return TokenEndArray, nil
		}
		return TokenNone, fmt.Errorf("unexpected delimiter %q", v)
	case string:
		if top := r.top(); top != nil && top.object && top.expectKey {
			top.expectKey = false
			top.name = v
			r.text = v
			return TokenFieldName, nil
		}
		r.valueConsumed()
		r.text = v
		return TokenString, nil
	case json.Number:
		r.valueConsumed()
		r.text = v.String()
		return TokenNumber, nil
	case bool:
		r.valueConsumed()
		r.text = strconv.FormatBool(v)
		return TokenBool, nil
	case nil:
		r.valueConsumed()
		r.text = "null"
		return TokenNull, nil
	}
	return TokenNone, fmt.Errorf("unsupported JSON token %T", tok)
}

func (r *jsonReader) CurrentName() string {
	if top := r.top(); top != nil {
		return top.name
	}
	return ""
}

func (r *jsonReader) Text() string { return r.text }

func (r *jsonReader) top() *jsonFrame {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

func (r *jsonReader) pop() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// valueConsumed marks the enclosing object as expecting its next key.
func (r *jsonReader) valueConsumed() {
	if top := r.top(); top != nil && top.object {
		top.expectKey = true
	}
}
