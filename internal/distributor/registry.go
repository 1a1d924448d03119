package distributor

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"crawling_observer/internal/domain"
)

// Handler writes the rows of one tag inside the unit of work carried by ctx.
type Handler interface {
	Tag() string
	Store(ctx context.Context, identity string, rows []domain.Row) error
}

type handlerFunc struct {
	tag string
	fn  func(ctx context.Context, identity string, rows []domain.Row) error
}

func (h handlerFunc) Tag() string { return h.tag }

func (h handlerFunc) Store(ctx context.Context, identity string, rows []domain.Row) error {
	return h.fn(ctx, identity, rows)
}

// HandlerFunc adapts a function to a Handler for tag.
func HandlerFunc(tag string, fn func(ctx context.Context, identity string, rows []domain.Row) error) Handler {
	return handlerFunc{tag: tag, fn: fn}
}

// Registry maps tags to handlers. It is populated at startup and read-only
// afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register panics on an empty or duplicate tag.
func (r *Registry) Register(h Handler) {
	tag := h.Tag()
	if tag == "" {
		panic("distributor: handler with empty tag")
	}
	if _, dup := r.handlers[tag]; dup {
		panic(fmt.Sprintf("distributor: handler for tag %q registered twice", tag))
	}
	r.handlers[tag] = h
}

func (r *Registry) Lookup(tag string) (Handler, error) {
	h, ok := r.handlers[tag]
	if !ok {
		return nil, domain.E(domain.KindConfiguration, "lookup handler",
			fmt.Errorf("no handler registered for tag %q", tag))
	}
	return h, nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	return slices.Sorted(maps.Keys(r.handlers))
}
