// Package navigation renders the configured navigator list into book pages.
package navigation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/navbar/internal/dom"
	"github.com/MrSnakeDoc/navbar/internal/domain"
	"github.com/MrSnakeDoc/navbar/internal/host"
	"github.com/MrSnakeDoc/navbar/internal/logger"
)

const (
	// DefaultHeaderSelector locates the header anchor in rendered book pages.
	DefaultHeaderSelector = ".book-header"

	ListClass = "nav-list"
	ItemClass = "nav-item"
)

var (
	// ErrHeaderNotFound means the page has no element matching the header selector.
	ErrHeaderNotFound = errors.New("header anchor not found")
	// ErrDetachedHeader means the header anchor has no parent to insert into.
	ErrDetachedHeader = errors.New("header anchor has no parent")
)

// Renderer owns the navigation state captured from the last start event
// and inserts a navigation list into each page it is handed.
//
// Every page-change inserts a new list; earlier lists are not removed.
// Hosts that reuse a page across events see one list per event.
type Renderer struct {
	header dom.Selector
	logger logger.Logger

	mu        sync.RWMutex
	current   domain.NavigationConfig
	started   bool
	lastStart time.Time
}

// NewRenderer returns a renderer with an empty navigator list.
func NewRenderer(header dom.Selector, log logger.Logger) *Renderer {
	return &Renderer{
		header:  header,
		logger:  log,
		current: domain.NavigationConfig{NavigatorList: []domain.NavigationEntry{}},
	}
}

// Attach subscribes the renderer to src.
func (r *Renderer) Attach(src host.NavigationSource) {
	src.OnStart(r.OnStart)
	src.OnPageChange(r.OnPageChange)
}

// OnStart captures cfg's navigation section, or an empty list when absent.
func (r *Renderer) OnStart(cfg domain.HostConfig) {
	nav := cfg.NavigationOrEmpty()

	r.mu.Lock()
	r.current = nav
	r.started = true
	r.lastStart = time.Now()
	r.mu.Unlock()

	r.logger.Debug("navigation config captured",
		logger.Int("entries", nav.Len()),
		logger.Bool("configured", cfg.Navigation != nil || cfg.LegacyNavigation != nil))
}

// OnPageChange inserts a freshly built navigation list right after the
// page's header anchor.
func (r *Renderer) OnPageChange(page *dom.Page) error {
	nav := r.Current()

	anchor := page.Find(r.header)
	if anchor == nil {
		return fmt.Errorf("%w: selector %q", ErrHeaderNotFound, r.header.String())
	}

	list := BuildList(nav.NavigatorList)
	if err := dom.InsertAfter(list, anchor); err != nil {
		if errors.Is(err, dom.ErrNoParent) {
			return fmt.Errorf("%w: selector %q", ErrDetachedHeader, r.header.String())
		}
		return err
	}

	r.logger.Debug("navigation list inserted",
		logger.Int("entries", nav.Len()))
	return nil
}

// Current returns a copy of the captured navigation config.
func (r *Renderer) Current() domain.NavigationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Clone()
}

// Started reports whether a start event has been seen, and when the last one arrived.
func (r *Renderer) Started() (bool, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started, r.lastStart
}

// BuildList builds <ul class="nav-list"> with one
// <li class="nav-item"><a href=URL>Name</a></li> per entry, in order.
func BuildList(entries []domain.NavigationEntry) *html.Node {
	ul := dom.Element("ul", html.Attribute{Key: "class", Val: ListClass})
	for _, e := range entries {
		a := dom.Element("a", html.Attribute{Key: "href", Val: e.URL})
		a.AppendChild(dom.Text(e.Name))

		li := dom.Element("li", html.Attribute{Key: "class", Val: ItemClass})
		li.AppendChild(a)
		ul.AppendChild(li)
	}
	return ul
}
