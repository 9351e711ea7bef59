package push

import "context"

// Provider abstracts the push-delivery API. Send delivers one message and
// returns the provider's receipt identifier.
// Mocking this interface in tests gives full control over delivery behaviour
// without making real HTTP calls.
type Provider interface {
	Send(ctx context.Context, msg *Message) (string, error)
}
