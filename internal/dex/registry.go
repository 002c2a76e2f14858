package dex

import (
	"context"

	"go.uber.org/zap"

	"dexflow/internal/config"
)

// Builder constructs a venue client bound to one chain.
type Builder func(ctx context.Context, cfg config.Config, chain string, logger *zap.Logger) (Venue, error)

// Registry maps venue identifiers to builders. It is a plain value
// constructed at startup and passed to call sites; there is no process-wide
// registry, so tests can assemble isolated registries with doubles.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces a venue builder under the given identifier.
func (r *Registry) Register(name string, builder Builder) {
	r.builders[name] = builder
}

// New constructs the named venue for the given chain. Unregistered names
// fail with UnknownVenueError.
func (r *Registry) New(ctx context.Context, name string, cfg config.Config, chain string, logger *zap.Logger) (Venue, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, &UnknownVenueError{Name: name}
	}
	return builder(ctx, cfg, chain, logger)
}

// Names returns the registered venue identifiers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}
