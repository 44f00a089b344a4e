package integrations

import "context"

// PushField is one key/value pair to write into an external tool, with
// the mapping already applied.
type PushField struct {
	Key   string
	Value string
}

// PushInput carries everything a provider needs for one push.
type PushInput struct {
	DocumentName string
	Fields       []PushField
	Config       map[string]string
}

// PushResult is the provider's outcome for a successful push.
type PushResult struct {
	ExternalID string
	Raw        map[string]any
}

// Pusher writes one field set into an external productivity tool.
// Providers register themselves in a Registry keyed by integration type.
type Pusher interface {
	Push(ctx context.Context, input PushInput) (PushResult, error)
}

// Registry maps integration types to their provider implementation.
type Registry struct {
	pushers map[string]Pusher
}

func NewRegistry() *Registry {
	return &Registry{pushers: make(map[string]Pusher)}
}

// Register binds a provider to an integration type.
func (r *Registry) Register(integrationType string, p Pusher) {
	r.pushers[integrationType] = p
}

// Lookup returns the provider for a type, or ErrNotImplemented.
func (r *Registry) Lookup(integrationType string) (Pusher, error) {
	p, ok := r.pushers[integrationType]
	if !ok {
		return nil, ErrNotImplemented
	}
	return p, nil
}

// ApplyMapping renames field keys per the caller's mapping. Keys without
// a mapping entry keep their extracted name.
func ApplyMapping(fields []PushField, mapping map[string]string) []PushField {
	if len(mapping) == 0 {
		return fields
	}
	out := make([]PushField, len(fields))
	for i, f := range fields {
		if mapped, ok := mapping[f.Key]; ok && mapped != "" {
			f.Key = mapped
		}
		out[i] = f
	}
	return out
}
