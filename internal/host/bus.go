// Package host carries the book host's lifecycle events to plugins.
package host

import (
	"errors"
	"sync"

	"github.com/MrSnakeDoc/navbar/internal/dom"
	"github.com/MrSnakeDoc/navbar/internal/domain"
	"github.com/MrSnakeDoc/navbar/internal/logger"
)

// Event names, as the host publishes them.
const (
	EventStart      = "start"
	EventPageChange = "page-change"
)

// StartHandler receives the host configuration on each start event.
type StartHandler func(cfg domain.HostConfig)

// PageChangeHandler receives the page being shown. It may mutate the page.
type PageChangeHandler func(page *dom.Page) error

// NavigationSource is what a plugin subscribes to.
type NavigationSource interface {
	OnStart(h StartHandler)
	OnPageChange(h PageChangeHandler)
}

// Bus is an in-process NavigationSource.
// Emits are serialized: handlers never run concurrently with each other,
// and run in registration order.
type Bus struct {
	mu         sync.Mutex
	start      []StartHandler
	pageChange []PageChangeHandler
	logger     logger.Logger
}

// NewBus creates an empty bus.
func NewBus(log logger.Logger) *Bus {
	return &Bus{logger: log}
}

func (b *Bus) OnStart(h StartHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = append(b.start, h)
}

func (b *Bus) OnPageChange(h PageChangeHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pageChange = append(b.pageChange, h)
}

// EmitStart delivers cfg to every start handler.
// Handlers must not emit on the same bus.
func (b *Bus) EmitStart(cfg domain.HostConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Debug("host event",
		logger.String("event", EventStart),
		logger.Int("handlers", len(b.start)))

	for _, h := range b.start {
		h(cfg)
	}
}

// EmitPageChange delivers page to every page-change handler. All handlers run
// even if one fails; their errors are joined.
func (b *Bus) EmitPageChange(page *dom.Page) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Debug("host event",
		logger.String("event", EventPageChange),
		logger.Int("handlers", len(b.pageChange)))

	var errs []error
	for _, h := range b.pageChange {
		if err := h(page); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
