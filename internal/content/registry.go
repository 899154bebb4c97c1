package content

import (
	"time"

	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

const DefaultSettleDelay = 150 * time.Millisecond

type Registry struct {
	handlers  map[snapshot.Kind]Handler
	producers map[string]Producer
	settle    time.Duration
	sleep     func(time.Duration)
}

type Option func(*Registry)

// WithSettleDelay sets how long to wait after a paginated document has
// been positioned and redrawn.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Registry) { r.settle = d }
}

func WithSleep(fn func(time.Duration)) Option {
	return func(r *Registry) { r.sleep = fn }
}

func WithProducer(kind string, p Producer) Option {
	return func(r *Registry) { r.producers[kind] = p }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		producers: map[string]Producer{},
		settle:    DefaultSettleDelay,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[snapshot.Kind]Handler{
		snapshot.KindFile:              fileHandler{},
		snapshot.KindPaginatedDocument: paginatedHandler{settle: r.settle, sleep: r.sleep},
		snapshot.KindIndexedDocument:   indexedHandler{},
		snapshot.KindDirectoryListing:  directoryHandler{},
		snapshot.KindNamedSurface:      namedHandler{producers: r.producers},
	}
	return r
}

func (r *Registry) Handler(k snapshot.Kind) (Handler, bool) {
	h, ok := r.handlers[k]
	return h, ok
}

func (r *Registry) RegisterProducer(kind string, p Producer) {
	r.producers[kind] = p
}

// Capture returns the descriptor for u, or false when u is not a
// recognized kind or lacks its identifying fields.
func (r *Registry) Capture(u Unit) (snapshot.Descriptor, bool) {
	h, ok := r.handlers[u.Kind]
	if !ok {
		return snapshot.Descriptor{}, false
	}
	d, ok := h.Capture(u)
	if !ok || d.Validate() != nil {
		return snapshot.Descriptor{}, false
	}
	return d, true
}

// Restorable reports whether a restore could bring u back: it is
// path-backed, or a named unit whose kind has a producer.
func (r *Registry) Restorable(u Unit) bool {
	switch u.Kind {
	case snapshot.KindFile, snapshot.KindPaginatedDocument, snapshot.KindIndexedDocument, snapshot.KindDirectoryListing:
		return u.Path != ""
	case snapshot.KindNamedSurface:
		_, ok := r.producers[u.NamedKind]
		return ok
	}
	return false
}
