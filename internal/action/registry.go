package action

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shaharia-lab/alertmail/internal/doc"
)

// Parser turns a fragment into an Action. The reader is positioned on the
// fragment's start-object token.
type Parser func(r doc.Reader) (Action, error)

// Registry maps action kinds to their parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[Kind]Parser
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[Kind]Parser)}
}

// DefaultRegistry returns a Registry with every built-in action registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindEmail, func(dr doc.Reader) (Action, error) {
		return ParseSMTPAction(dr)
	})
	return r
}

// Register adds or replaces the parser for kind.
func (r *Registry) Register(kind Kind, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[kind] = p
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.parsers))
	for k := range r.parsers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Parse consumes the start-object token from dr and hands the fragment to the
// parser registered for kind.
func (r *Registry) Parse(kind Kind, dr doc.Reader) (Action, error) {
	r.mu.RLock()
	p, ok := r.parsers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown action type %q", kind)
	}

	tok, err := dr.NextToken()
	if err != nil {
		return nil, &MalformedDefinitionError{Err: readErr(err)}
	}
	if tok != doc.TokenStartObject {
		return nil, &MalformedDefinitionError{Token: tok}
	}
	return p(dr)
}
