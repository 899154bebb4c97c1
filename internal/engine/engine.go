// Package engine captures a surface's split hierarchy into a layout tree
// and rebuilds a tree on a live surface. Calls against one surface must
// not overlap; the engine does no locking of its own.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/geometry"
	"github.com/alchemmist/lazy-layout/internal/host"
)

type Engine struct {
	win     host.Windowing
	content content.Host
	reg     *content.Registry
	min     geometry.MinSize
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Engine)

func WithMinSize(m geometry.MinSize) Option {
	return func(e *Engine) { e.min = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(win host.Windowing, ch content.Host, reg *content.Registry, opts ...Option) *Engine {
	e := &Engine{
		win:     win,
		content: ch,
		reg:     reg,
		min:     geometry.MinSize{Width: 1, Height: 1},
		log:     zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
