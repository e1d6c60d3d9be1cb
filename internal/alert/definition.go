package alert

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/doc"
)

// Definition is an alert loaded from a definition document: its name and the
// actions to run when it fires.
type Definition struct {
	AlertName string
	Actions   []action.Action
}

// Name implements Alert.
func (d *Definition) Name() string { return d.AlertName }

type definitionFile struct {
	Name    string                 `yaml:"name"`
	Actions []map[string]yaml.Node `yaml:"actions"`
}

// LoadDefinition reads an alert definition from a YAML file.
func LoadDefinition(path string, reg *action.Registry) (*Definition, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("opening alert definition: %w", err)
	}
	defer f.Close() //nolint:errcheck

	def, err := DecodeDefinition(f, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// DecodeDefinition parses a YAML alert definition of the form
//
//	name: disk-usage
//	actions:
//	  - email:
//	      display: host
//	      addresses: [ops@example.com]
//
// Every action entry must have exactly one key naming its type; the entry's
// value is handed to the parser registered for that type.
func DecodeDefinition(r io.Reader, reg *action.Registry) (*Definition, error) {
	var raw definitionFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("alert definition is empty")
		}
		return nil, fmt.Errorf("decoding alert definition: %w", err)
	}
	if raw.Name == "" {
		return nil, errors.New("alert definition has no name")
	}

	def := &Definition{AlertName: raw.Name}
	for i, entry := range raw.Actions {
		if len(entry) != 1 {
			return nil, fmt.Errorf("action %d: expected exactly one action type, got %d", i, len(entry))
		}
		for kind, node := range entry {
			dr, err := doc.NewYAMLReader(&node)
			if err != nil {
				return nil, fmt.Errorf("action %d (%s): %w", i, kind, err)
			}
			a, err := reg.Parse(action.Kind(kind), dr)
			if err != nil {
				return nil, fmt.Errorf("action %d (%s): %w", i, kind, err)
			}
			def.Actions = append(def.Actions, a)
		}
	}
	return def, nil
}
