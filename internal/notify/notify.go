// Package notify carries abstract notifications out of the engine.
// The engine decides who gets told what; bindings decide how it looks.
package notify

import (
	"context"
	"log"
	"sync"
)

// Action is a suggested follow-up the binding may render as a button.
type Action struct {
	Label   string `json:"label"`
	Command string `json:"command"`
}

// Notification names a recipient, a message template and its params.
// Templates are identifiers (e.g. "order.assigned.executor"), not text;
// rendering is the binding's concern.
type Notification struct {
	Recipient string         `json:"recipient"`
	Template  string         `json:"template"`
	Params    map[string]any `json:"params,omitempty"`
	Actions   []Action       `json:"actions,omitempty"`
}

// Dispatcher delivers a notification. Errors are reported to the caller,
// which logs them and warns the admin; a failed delivery never rolls
// back the state change that produced it.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the process log. Default binding for
// the CLI.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, n Notification) error {
	log.Printf("notify %s: %s %v", n.Recipient, n.Template, n.Params)
	return nil
}

// Recorder collects notifications in memory for tests.
type Recorder struct {
	mu   sync.Mutex
	Sent []Notification
	// Fail makes Send return an error for matching templates.
	Fail func(n Notification) error
}

func (r *Recorder) Send(ctx context.Context, n Notification) error {
	if r.Fail != nil {
		if err := r.Fail(n); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, n)
	return nil
}

// ByTemplate returns recorded notifications with the given template.
func (r *Recorder) ByTemplate(template string) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.Sent {
		if n.Template == template {
			out = append(out, n)
		}
	}
	return out
}
