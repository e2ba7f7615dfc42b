// Package contacts pages through the contacts of one recipient list.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
	"github.com/foxzi/disparo/internal/poll"
)

// DefaultPageSize is the number of contacts per page
const DefaultPageSize = 50

// ErrStale is returned when a newer page was requested before this one
// resolved. The result was not applied.
var ErrStale = errors.New("contacts page superseded")

// Fetcher loads one page of contacts. *client.Client implements it.
type Fetcher interface {
	ListContacts(ctx context.Context, id models.ID, page, limit int) (*client.ContactsResponse, error)
}

// Page is one loaded page of contacts
type Page struct {
	ListID     models.ID
	Number     int
	Size       int
	Contacts   []models.Contact
	Total      int
	TotalPages int
}

// Clamp limits page to [1, totalPages]. An unknown page count (< 1) only
// bounds the page from below.
func Clamp(page, totalPages int) int {
	if totalPages >= 1 && page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Browser fetches contact pages on demand. Contacts are not polled; each
// page is fetched once per navigation.
type Browser struct {
	fetcher  Fetcher
	listID   models.ID
	size     int
	notifier notify.Notifier
	logger   *slog.Logger

	guard poll.Guard

	mu         sync.Mutex
	target     int
	totalPages int
	current    Page
	loaded     bool
}

// Option configures a Browser
type Option func(*Browser)

// WithPageSize overrides DefaultPageSize
func WithPageSize(n int) Option {
	return func(b *Browser) {
		if n > 0 {
			b.size = n
		}
	}
}

// WithNotifier reports load failures to the operator
func WithNotifier(n notify.Notifier) Option {
	return func(b *Browser) {
		b.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = l
	}
}

// NewBrowser creates a browser over the contacts of listID
func NewBrowser(f Fetcher, listID models.ID, opts ...Option) *Browser {
	b := &Browser{
		fetcher:  f,
		listID:   listID,
		size:     DefaultPageSize,
		notifier: notify.Discard,
		logger:   slog.New(slog.DiscardHandler),
		target:   1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "contacts", "list_id", listID)
	return b
}

// PageSize returns the page size
func (b *Browser) PageSize() int {
	return b.size
}

// Current returns the last applied page
func (b *Browser) Current() (Page, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.loaded
}

// Target returns the page most recently requested
func (b *Browser) Target() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

// Load fetches the requested page after clamping it to the known range.
// Before the first page has loaded the page count is unknown, so a request
// beyond page 1 fetches page 1 first and clamps against its totals.
func (b *Browser) Load(ctx context.Context, page int) (Page, error) {
	b.mu.Lock()
	known := b.loaded
	b.mu.Unlock()

	if !known && page > 1 {
		first, err := b.fetch(ctx, 1)
		if err != nil {
			return Page{}, err
		}
		if Clamp(page, max(first.TotalPages, 1)) == 1 {
			return first, nil
		}
	}
	return b.fetch(ctx, page)
}

func (b *Browser) fetch(ctx context.Context, page int) (Page, error) {
	b.mu.Lock()
	// An empty list still has page 1
	page = Clamp(page, max(b.totalPages, 1))
	b.target = page
	b.mu.Unlock()

	tok := b.guard.Enter(b.key(page))

	resp, err := b.fetcher.ListContacts(ctx, b.listID, page, b.size)
	if err != nil {
		if !b.guard.Valid(tok) {
			return Page{}, ErrStale
		}
		b.logger.Warn("failed to load contacts", "page", page, "error", err)
		b.notifier.Error("Falha ao carregar contatos")
		return Page{}, fmt.Errorf("load contacts page %d: %w", page, err)
	}

	p := Page{
		ListID:     b.listID,
		Number:     page,
		Size:       b.size,
		Contacts:   resp.Contacts,
		Total:      resp.Pagination.Total,
		TotalPages: resp.Pagination.TotalPages,
	}

	applied := b.guard.Apply(tok, func() {
		b.mu.Lock()
		b.current = p
		b.loaded = true
		b.totalPages = p.TotalPages
		b.mu.Unlock()
	})
	if !applied {
		b.logger.Debug("discarding stale contacts page", "page", page)
		return Page{}, ErrStale
	}
	return p, nil
}

// Next loads the page after the most recently requested one
func (b *Browser) Next(ctx context.Context) (Page, error) {
	return b.Load(ctx, b.Target()+1)
}

// Prev loads the page before the most recently requested one
func (b *Browser) Prev(ctx context.Context) (Page, error) {
	return b.Load(ctx, b.Target()-1)
}

// Reload fetches the most recently requested page again
func (b *Browser) Reload(ctx context.Context) (Page, error) {
	return b.Load(ctx, b.Target())
}

// HasNext reports whether a page after the current target exists
func (b *Browser) HasNext() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target < b.totalPages
}

// HasPrev reports whether a page before the current target exists
func (b *Browser) HasPrev() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target > 1
}

// Close discards any page still in flight
func (b *Browser) Close() {
	b.guard.Invalidate()
}

func (b *Browser) key(page int) string {
	return string(b.listID) + ":" + strconv.Itoa(page)
}
