package event

import "context"

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

// NewNop creates a publisher that drops everything.
func NewNop() *NopPublisher {
	return &NopPublisher{}
}

func (*NopPublisher) Publish(context.Context, string, any) error {
	return nil
}

func (*NopPublisher) Close() error {
	return nil
}
