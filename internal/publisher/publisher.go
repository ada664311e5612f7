// Package publisher defines the run-completion notification abstraction.
package publisher

import "context"

// Publisher delivers one JSON-serializable payload and returns the broker's
// message ID. The destination topic is bound when the publisher is built.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
}
