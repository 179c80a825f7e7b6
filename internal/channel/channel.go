package channel

import (
	"context"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
)

// OutboundMessage is a channel-agnostic message to deliver to a lead.
type OutboundMessage struct {
	Lead    *model.Lead
	Subject string // Used by the email channel only
	Body    string
}

// Adapter delivers messages over one outreach channel.
type Adapter interface {
	// Name returns the channel identifier (model.ChannelWhatsApp or model.ChannelEmail).
	Name() string
	// Send delivers the message and returns the provider-side message ID when available.
	Send(ctx context.Context, msg OutboundMessage) (externalMessageID string, err error)
}

// Registry resolves channel adapters by name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter for the channel name, or nil when unknown.
func (r *Registry) Get(name string) Adapter {
	return r.adapters[name]
}
