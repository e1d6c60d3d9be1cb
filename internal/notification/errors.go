package notification

import (
	"errors"
	"fmt"

	"github.com/shaharia-lab/alertmail/internal/action"
)

var (
	// ErrConfigurationUnavailable matches *ConfigurationUnavailableError.
	ErrConfigurationUnavailable = errors.New("mail configuration unavailable")
	// ErrDeliveryFailed matches *DeliveryFailedError.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrWrongAction matches *WrongActionError.
	ErrWrongAction = errors.New("wrong action type")
)

// ConfigurationUnavailableError is returned when no usable mail configuration
// could be obtained. Err holds the store or validation error, if any.
type ConfigurationUnavailableError struct {
	Err error
}

func (e *ConfigurationUnavailableError) Error() string {
	if e.Err != nil {
		return ErrConfigurationUnavailable.Error() + ": " + e.Err.Error()
	}
	return ErrConfigurationUnavailable.Error()
}

// Is reports whether target is ErrConfigurationUnavailable.
func (e *ConfigurationUnavailableError) Is(target error) bool {
	return target == ErrConfigurationUnavailable
}

func (e *ConfigurationUnavailableError) Unwrap() error { return e.Err }

// DeliveryFailedError wraps any failure to compose or transmit a message.
type DeliveryFailedError struct {
	Host string
	Port int
	Err  error
}

func (e *DeliveryFailedError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("%s: %v", ErrDeliveryFailed, e.Err)
	}
	return fmt.Sprintf("%s via %s:%d: %v", ErrDeliveryFailed, e.Host, e.Port, e.Err)
}

// Is reports whether target is ErrDeliveryFailed.
func (e *DeliveryFailedError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

func (e *DeliveryFailedError) Unwrap() error { return e.Err }

// WrongActionError reports an action variant handed to a dispatcher that does
// not handle it. It indicates a wiring bug, not a runtime condition.
type WrongActionError struct {
	Want action.Kind
	Got  action.Kind
}

func (e *WrongActionError) Error() string {
	got := string(e.Got)
	if got == "" {
		got = "<nil>"
	}
	return fmt.Sprintf("%s: dispatcher handles [%s], got [%s]", ErrWrongAction, e.Want, got)
}

// Is reports whether target is ErrWrongAction.
func (e *WrongActionError) Is(target error) bool {
	return target == ErrWrongAction
}
