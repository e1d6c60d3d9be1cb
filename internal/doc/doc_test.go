package doc_test

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/alertmail/internal/doc"
)

type tok struct {
	kind doc.Token
	text string
}

func drain(t *testing.T, r doc.Reader) []tok {
	t.Helper()
	var out []tok
	for {
		k, err := r.NextToken()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, tok{kind: k, text: r.Text()})
	}
}

func TestJSONReader_Tokens(t *testing.T) {
	r := doc.NewJSONReader(strings.NewReader(`{"display":"msg","addresses":["a@x.io",2],"n":null,"b":true,"o":{"k":1}}`))

	got := drain(t, r)
	kinds := make([]doc.Token, 0, len(got))
	for _, g := range got {
		kinds = append(kinds, g.kind)
	}
	assert.Equal(t, []doc.Token{
		doc.TokenStartObject,
		doc.TokenFieldName, doc.TokenString,
		doc.TokenFieldName, doc.TokenStartArray, doc.TokenString, doc.TokenNumber, doc.TokenEndArray,
		doc.TokenFieldName, doc.TokenNull,
		doc.TokenFieldName, doc.TokenBool,
		doc.TokenFieldName, doc.TokenStartObject, doc.TokenFieldName, doc.TokenNumber, doc.TokenEndObject,
		doc.TokenEndObject,
	}, kinds)
	assert.Equal(t, "display", got[1].text)
	assert.Equal(t, "msg", got[2].text)
	assert.Equal(t, "2", got[6].text)
	assert.Equal(t, "null", got[9].text)
	assert.Equal(t, "true", got[11].text)
}

func TestJSONReader_CurrentName(t *testing.T) {
	r := doc.NewJSONReader(strings.NewReader(`{"first":"a","second":"b"}`))

	_, err := r.NextToken()
	require.NoError(t, err)
	k, err := r.NextToken()
	require.NoError(t, err)
	require.Equal(t, doc.TokenFieldName, k)
	assert.Equal(t, "first", r.CurrentName())

	_, err = r.NextToken()
	require.NoError(t, err)
	_, err = r.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "second", r.CurrentName())
}

func TestJSONReader_StopsAtObjectEnd(t *testing.T) {
	r := doc.NewJSONReader(strings.NewReader(`{"a":1} {"b":2}`))

	for i := 0; i < 4; i++ {
		_, err := r.NextToken()
		require.NoError(t, err)
	}
	k, err := r.NextToken()
	require.NoError(t, err)
	assert.Equal(t, doc.TokenStartObject, k, "second document must still be unread")
}

func TestJSONReader_SyntaxError(t *testing.T) {
	r := doc.NewJSONReader(strings.NewReader(`{"a" 1}`))
	_, err := r.NextToken()
	require.NoError(t, err)
	_, err = r.NextToken()
	require.NoError(t, err)
	_, err = r.NextToken()
	assert.Error(t, err)
}

func TestYAMLReader_Tokens(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("display: msg\naddresses:\n  - a@x.io\n  - b@y.io\ncount: 3\nempty: ~\n"), &node))

	r, err := doc.NewYAMLReader(&node)
	require.NoError(t, err)

	got := drain(t, r)
	require.Len(t, got, 13)
	assert.Equal(t, doc.TokenStartObject, got[0].kind)
	assert.Equal(t, tok{doc.TokenFieldName, "display"}, got[1])
	assert.Equal(t, tok{doc.TokenString, "msg"}, got[2])
	assert.Equal(t, doc.TokenStartArray, got[4].kind)
	assert.Equal(t, tok{doc.TokenString, "b@y.io"}, got[6])
	assert.Equal(t, doc.TokenEndArray, got[7].kind)
	assert.Equal(t, tok{doc.TokenNumber, "3"}, got[9])
	assert.Equal(t, tok{doc.TokenNull, "null"}, got[11])
}

func TestYAMLReader_Aliases(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("base: &b\n  - one\ncopy: *b\n"), &node))

	r, err := doc.NewYAMLReader(&node)
	require.NoError(t, err)

	got := drain(t, r)
	// { base [ one ] copy [ one ] }
	require.Len(t, got, 10)
	assert.Equal(t, tok{doc.TokenString, "one"}, got[7])
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"string", "hello", "hello"},
		{"integral float", float64(42), "42"},
		{"fraction", 1.5, "1.5"},
		{"json number", json.Number("17"), "17"},
		{"bool", true, "true"},
		{"int", 7, "7"},
		{"map sorted", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"slice", []any{"a", 2.0}, `["a",2]`},
		{"markup kept verbatim", map[string]any{"other": "a<b & c>d"}, `{"other":"a<b & c>d"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.Text(tt.in))
		})
	}
}

func TestLookup(t *testing.T) {
	data := map[string]any{
		"hits": map[string]any{
			"total": 12.0,
			"hits":  []any{map[string]any{"_source": map[string]any{"msg": "a"}}},
		},
	}

	v, err := doc.Lookup("hits.total", data)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	v, err = doc.Lookup("hits.missing", data)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = doc.Lookup("hits.total", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = doc.Lookup("hits.hits", data)
	require.NoError(t, err)
	assert.Len(t, v, 1)
}
