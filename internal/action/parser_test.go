package action_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/doc"
)

// jsonFragment returns a reader positioned on the fragment's start-object token.
func jsonFragment(t *testing.T, s string) doc.Reader {
	t.Helper()
	r := doc.NewJSONReader(strings.NewReader(s))
	tok, err := r.NextToken()
	require.NoError(t, err)
	require.Equal(t, doc.TokenStartObject, tok)
	return r
}

func TestParseSMTPAction(t *testing.T) {
	tests := []struct {
		name        string
		fragment    string
		wantDisplay string
		wantHas     bool
		wantRcpts   []string
	}{
		{
			name:        "display and addresses",
			fragment:    `{"display":"message","addresses":["ops@example.com","dev@example.com"]}`,
			wantDisplay: "message",
			wantHas:     true,
			wantRcpts:   []string{"ops@example.com", "dev@example.com"},
		},
		{
			name:      "addresses only",
			fragment:  `{"addresses":["ops@example.com"]}`,
			wantRcpts: []string{"ops@example.com"},
		},
		{
			name:      "empty addresses",
			fragment:  `{"addresses":[]}`,
			wantRcpts: []string{},
		},
		{
			name:      "empty object",
			fragment:  `{}`,
			wantRcpts: []string{},
		},
		{
			name:      "duplicates kept in order",
			fragment:  `{"addresses":["b@example.com","a@example.com","b@example.com"]}`,
			wantRcpts: []string{"b@example.com", "a@example.com", "b@example.com"},
		},
		{
			name:        "addresses before display",
			fragment:    `{"addresses":["a@example.com"],"display":"host"}`,
			wantDisplay: "host",
			wantHas:     true,
			wantRcpts:   []string{"a@example.com"},
		},
		{
			name:      "null display stays unset",
			fragment:  `{"display":null,"addresses":["a@example.com"]}`,
			wantRcpts: []string{"a@example.com"},
		},
		{
			name:        "numeric display taken as text",
			fragment:    `{"display":42}`,
			wantDisplay: "42",
			wantHas:     true,
			wantRcpts:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := action.ParseSMTPAction(jsonFragment(t, tt.fragment))
			require.NoError(t, err)

			display, has := a.DisplayField()
			assert.Equal(t, tt.wantHas, has)
			assert.Equal(t, tt.wantDisplay, display)
			assert.Equal(t, tt.wantRcpts, a.Recipients())
			assert.Equal(t, action.KindEmail, a.Kind())
		})
	}
}

func TestParseSMTPAction_Idempotent(t *testing.T) {
	const fragment = `{"display":"msg","addresses":["x@example.com","y@example.com"]}`

	first, err := action.ParseSMTPAction(jsonFragment(t, fragment))
	require.NoError(t, err)
	second, err := action.ParseSMTPAction(jsonFragment(t, fragment))
	require.NoError(t, err)

	d1, h1 := first.DisplayField()
	d2, h2 := second.DisplayField()
	assert.Equal(t, d1, d2)
	assert.Equal(t, h1, h2)
	assert.Equal(t, first.Recipients(), second.Recipients())
}

func TestParseSMTPAction_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		wantField string
		wantToken doc.Token
	}{
		{"unknown field first", `{"subject":"x","addresses":["a@example.com"]}`, "subject", doc.TokenNone},
		{"unknown field last", `{"addresses":["a@example.com"],"subject":"x"}`, "subject", doc.TokenNone},
		{"unknown array field", `{"cc":["a@example.com"]}`, "cc", doc.TokenNone},
		{"wrong case", `{"Display":"x"}`, "Display", doc.TokenNone},
		{"display as array", `{"display":["x"]}`, "display", doc.TokenStartArray},
		{"display as object", `{"display":{"x":1}}`, "display", doc.TokenStartObject},
		{"addresses as scalar", `{"addresses":"a@example.com"}`, "addresses", doc.TokenString},
		{"addresses as object", `{"addresses":{"a":"b"}}`, "addresses", doc.TokenStartObject},
		{"nested object in addresses", `{"addresses":[{"a":"b"}]}`, "addresses", doc.TokenStartObject},
		{"nested array in addresses", `{"addresses":[["a@example.com"]]}`, "addresses", doc.TokenStartArray},
		{"null address", `{"addresses":[null]}`, "addresses", doc.TokenNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := action.ParseSMTPAction(jsonFragment(t, tt.fragment))
			require.Error(t, err)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, action.ErrMalformedDefinition)

			var merr *action.MalformedDefinitionError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, tt.wantField, merr.Field)
			assert.Equal(t, tt.wantToken, merr.Token)
		})
	}
}

func TestParseSMTPAction_UnexpectedEnd(t *testing.T) {
	_, err := action.ParseSMTPAction(jsonFragment(t, `{"addresses":["a@example.com"`))
	require.Error(t, err)
	assert.ErrorIs(t, err, action.ErrMalformedDefinition)
}

func TestParseSMTPAction_StopsAtEndObject(t *testing.T) {
	r := doc.NewJSONReader(strings.NewReader(`{"outer":{"addresses":["a@example.com"]},"after":true}`))
	for i := 0; i < 3; i++ {
		_, err := r.NextToken()
		require.NoError(t, err)
	}

	a, err := action.ParseSMTPAction(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, a.Recipients())

	tok, err := r.NextToken()
	require.NoError(t, err)
	assert.Equal(t, doc.TokenFieldName, tok)
	assert.Equal(t, "after", r.Text())
}

func TestParseSMTPAction_YAML(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("display: msg\naddresses: [a@example.com, b@example.com]\n"), &node))
	r, err := doc.NewYAMLReader(&node)
	require.NoError(t, err)
	_, err = r.NextToken()
	require.NoError(t, err)

	a, err := action.ParseSMTPAction(r)
	require.NoError(t, err)
	display, ok := a.DisplayField()
	assert.True(t, ok)
	assert.Equal(t, "msg", display)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, a.Recipients())

	_, err = r.NextToken()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSMTPAction_Immutable(t *testing.T) {
	rcpts := []string{"a@example.com"}
	display := "msg"
	a := action.NewSMTPAction(&display, rcpts)

	rcpts[0] = "changed@example.com"
	display = "changed"
	got := a.Recipients()
	got[0] = "mutated@example.com"

	d, _ := a.DisplayField()
	assert.Equal(t, "msg", d)
	assert.Equal(t, []string{"a@example.com"}, a.Recipients())
}

func TestRegistry(t *testing.T) {
	reg := action.DefaultRegistry()
	assert.Equal(t, []action.Kind{action.KindEmail}, reg.Kinds())

	a, err := reg.Parse(action.KindEmail, doc.NewJSONReader(strings.NewReader(`{"addresses":["a@example.com"]}`)))
	require.NoError(t, err)
	assert.Equal(t, action.KindEmail, a.Kind())

	_, err = reg.Parse("webhook", doc.NewJSONReader(strings.NewReader(`{}`)))
	assert.ErrorContains(t, err, `unknown action type "webhook"`)

	_, err = reg.Parse(action.KindEmail, doc.NewJSONReader(strings.NewReader(`["a@example.com"]`)))
	assert.ErrorIs(t, err, action.ErrMalformedDefinition)
}

func TestMalformedDefinitionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *action.MalformedDefinitionError
		want string
	}{
		{"field", &action.MalformedDefinitionError{Field: "cc"}, "malformed action definition: unexpected field [cc]"},
		{"token", &action.MalformedDefinitionError{Token: doc.TokenStartArray}, "malformed action definition: unexpected token [START_ARRAY]"},
		{"both", &action.MalformedDefinitionError{Field: "display", Token: doc.TokenStartObject}, "malformed action definition: unexpected token [START_OBJECT] for field [display]"},
		{"cause", &action.MalformedDefinitionError{Err: io.ErrUnexpectedEOF}, "malformed action definition: invalid fragment: unexpected EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
