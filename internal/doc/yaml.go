package doc

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlToken struct {
	kind Token
	text string
	name string
}

// yamlReader replays a yaml.v3 node tree as a token stream.
type yamlReader struct {
	tokens []yamlToken
	pos    int
}

// NewYAMLReader returns a Reader over the given node. Document nodes are
// unwrapped and aliases are followed.
func NewYAMLReader(node *yaml.Node) (Reader, error) {
	r := &yamlReader{pos: -1}
	if err := r.flatten(node, ""); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *yamlReader) flatten(n *yaml.Node, name string) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			if err := r.flatten(c, name); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		r.emit(TokenStartObject, "", name)
		if len(n.Content)%2 != 0 {
			return fmt.Errorf("line %d: mapping has an odd number of nodes", n.Line)
		}
		for i := 0; i < len(n.Content); i += 2 {
			key := n.Content[i]
			r.emit(TokenFieldName, key.Value, key.Value)
			if err := r.flatten(n.Content[i+1], key.Value); err != nil {
				return err
			}
		}
		r.emit(TokenEndObject, "", name)
	case yaml.SequenceNode:
		r.emit(TokenStartArray, "", name)
		for _, c := range n.Content {
			if err := r.flatten(c, name); err != nil {
				return err
			}
		}
		r.emit(TokenEndArray, "", name)
	case yaml.ScalarNode:
		r.emit(scalarKind(n), scalarText(n), name)
	case yaml.AliasNode:
		return r.flatten(n.Alias, name)
	default:
		return fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
	return nil
}

func (r *yamlReader) emit(kind Token, text, name string) {
	r.tokens = append(r.tokens, yamlToken{kind: kind, text: text, name: name})
}

func scalarKind(n *yaml.Node) Token {
	switch n.ShortTag() {
	case "!!null":
		return TokenNull
	case "!!bool":
		return TokenBool
	case "!!int", "!!float":
		return TokenNumber
	default:
		return TokenString
	}
}

func scalarText(n *yaml.Node) string {
	if n.ShortTag() == "!!null" {
		return "null"
	}
	return n.Value
}

func (r *yamlReader) NextToken() (Token, error) {
	if r.pos+1 >= len(r.tokens) {
		r.pos = len(r.tokens)
		return TokenNone, io.EOF
	}
	r.pos++
	return r.tokens[r.pos].kind, nil
}

func (r *yamlReader) CurrentName() string {
	if r.pos < 0 || r.pos >= len(r.tokens) {
		return ""
	}
	return r.tokens[r.pos].name
}

func (r *yamlReader) Text() string {
	if r.pos < 0 || r.pos >= len(r.tokens) {
		return ""
	}
	return r.tokens[r.pos].text
}
