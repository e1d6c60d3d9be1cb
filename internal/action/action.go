// Package action defines alert action definitions and parses them from
// structured-document fragments.
package action

import "slices"

// Kind names an action variant. It is also the key under which the action
// appears in an alert definition document.
type Kind string

// KindEmail is the SMTP e-mail action.
const KindEmail Kind = "email"

// Action is a parsed, immutable alert action definition. Each variant carries
// its own payload; dispatchers accept only the variant they handle.
type Action interface {
	Kind() Kind
}

// SMTPAction describes an e-mail notification: who receives it and which
// field of each matching document to surface in the body.
type SMTPAction struct {
	displayField string
	hasDisplay   bool
	recipients   []string
}

// NewSMTPAction builds an SMTPAction. A nil display leaves the display field
// unset. Recipients are copied; order and duplicates are preserved.
func NewSMTPAction(display *string, recipients []string) *SMTPAction {
	a := &SMTPAction{recipients: slices.Clone(recipients)}
	if a.recipients == nil {
		a.recipients = []string{}
	}
	if display != nil {
		a.displayField = *display
		a.hasDisplay = true
	}
	return a
}

// Kind implements Action.
func (a *SMTPAction) Kind() Kind { return KindEmail }

// DisplayField returns the configured display field and whether it is set.
func (a *SMTPAction) DisplayField() (string, bool) {
	return a.displayField, a.hasDisplay
}

// Recipients returns a copy of the recipient addresses in definition order.
func (a *SMTPAction) Recipients() []string {
	return slices.Clone(a.recipients)
}
