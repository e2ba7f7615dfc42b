// Package compose validates the creation forms of campaigns, templates and
// recipient lists, including the cross-entity rules of a campaign.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/foxzi/disparo/internal/models"
)

// Daily limit bounds of a new campaign. The service has the final word.
const (
	MinDailyLimit     = 1
	MaxDailyLimit     = 10000
	DefaultDailyLimit = 4000
)

// Errors returned by LoadOptions, wrapping the client error
var (
	ErrTemplatesUnavailable = errors.New("load templates")
	ErrListsUnavailable     = errors.New("load lists")
)

// FieldError reports the first invalid field of a form
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// SelectableLists returns the lists a campaign may target: those whose
// processing completed.
func SelectableLists(lists []models.List) []models.List {
	out := make([]models.List, 0, len(lists))
	for _, l := range lists {
		if l.Status == models.ListCompleted {
			out = append(out, l)
		}
	}
	return out
}

// Source lists the entities a campaign references. *client.Client implements it.
type Source interface {
	ListTemplates(ctx context.Context) ([]models.Template, error)
	ListLists(ctx context.Context) ([]models.List, error)
}

// Options are the choices offered by the campaign form
type Options struct {
	Templates []models.Template
	Lists     []models.List
}

// LoadOptions fetches templates and lists concurrently. Lists that cannot
// be targeted are filtered out.
func LoadOptions(ctx context.Context, src Source) (*Options, error) {
	var opts Options
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		templates, err := src.ListTemplates(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTemplatesUnavailable, err)
		}
		opts.Templates = templates
		return nil
	})
	g.Go(func() error {
		lists, err := src.ListLists(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrListsUnavailable, err)
		}
		opts.Lists = SelectableLists(lists)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Template returns the template with id
func (o *Options) Template(id models.ID) (models.Template, bool) {
	for _, t := range o.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

// List returns the selectable list with id
func (o *Options) List(id models.ID) (models.List, bool) {
	for _, l := range o.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return models.List{}, false
}

// ParseDailyLimit parses the daily limit field. Empty input means the default.
func ParseDailyLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultDailyLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid("daily_limit", "O limite diário deve ser um número inteiro")
	}
	if err := ValidateDailyLimit(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateDailyLimit checks n against [MinDailyLimit, MaxDailyLimit]
func ValidateDailyLimit(n int) error {
	if n < MinDailyLimit || n > MaxDailyLimit {
		return invalid("daily_limit", fmt.Sprintf("O limite diário deve estar entre %d e %d", MinDailyLimit, MaxDailyLimit))
	}
	return nil
}
