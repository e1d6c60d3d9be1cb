package eventbus

import "time"

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)

// Listen returns a Listener that only forwards events of the given types.
func Listen(fn Listener, types ...string) Listener {
	want := make(map[string]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	return func(e Event) {
		if _, ok := want[e.Type]; ok {
			fn(e)
		}
	}
}
