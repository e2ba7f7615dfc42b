// Package action dispatches operator actions (start, pause, resume, delete)
// against the resource service and refreshes the affected view on success.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxzi/disparo/internal/metrics"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
)

var (
	// ErrUnsupported is returned for a target/kind pair that has no operation
	ErrUnsupported = errors.New("unsupported action")
	// ErrPending is returned while the same action on the same entity is in flight
	ErrPending = errors.New("action already in progress")
	// ErrCanceled is returned when the operator declines a confirmation
	ErrCanceled = errors.New("action canceled")
)

// Target is the kind of entity an action applies to
type Target string

const (
	TargetCampaign Target = "campaign"
	TargetList     Target = "list"
	TargetTemplate Target = "template"
)

// Backend performs the remote calls. *client.Client implements it.
type Backend interface {
	StartCampaign(ctx context.Context, id models.ID) error
	PauseCampaign(ctx context.Context, id models.ID) error
	ResumeCampaign(ctx context.Context, id models.ID) error
	DeleteCampaign(ctx context.Context, id models.ID) error
	DeleteList(ctx context.Context, id models.ID) error
	DeleteTemplate(ctx context.Context, id models.ID) error
}

// Refresher triggers an out-of-cycle refresh. *poll.Handle implements it.
type Refresher interface {
	Refresh() bool
}

// Confirmer asks the operator to confirm a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm accepts every confirmation. Use it when the caller has
// already asked the operator.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// Request describes one action
type Request struct {
	Target Target
	Kind   models.Action
	ID     models.ID
	// Refresh, if set, is refreshed after the action succeeds
	Refresh Refresher
}

type operation struct {
	call    func(b Backend, ctx context.Context, id models.ID) error
	success string
	failure string
	confirm string
}

type opKey struct {
	target Target
	kind   models.Action
}

var operations = map[opKey]operation{
	{TargetCampaign, models.ActionStart}: {
		call:    Backend.StartCampaign,
		success: "Campanha iniciada",
		failure: "Falha ao iniciar campanha",
	},
	{TargetCampaign, models.ActionPause}: {
		call:    Backend.PauseCampaign,
		success: "Campanha pausada",
		failure: "Falha ao pausar campanha",
	},
	{TargetCampaign, models.ActionResume}: {
		call:    Backend.ResumeCampaign,
		success: "Campanha retomada",
		failure: "Falha ao retomar campanha",
	},
	{TargetCampaign, models.ActionDelete}: {
		call:    Backend.DeleteCampaign,
		success: "Campanha excluída",
		failure: "Falha ao excluir campanha",
		confirm: "Tem certeza que deseja excluir esta campanha?",
	},
	{TargetList, models.ActionDelete}: {
		call:    Backend.DeleteList,
		success: "Lista excluída com sucesso",
		failure: "Falha ao excluir lista",
		confirm: "Tem certeza que deseja excluir esta lista?",
	},
	{TargetTemplate, models.ActionDelete}: {
		call:    Backend.DeleteTemplate,
		success: "Template excluído com sucesso",
		failure: "Falha ao excluir template",
		confirm: "Tem certeza que deseja excluir este template?",
	},
}

// Supported reports whether kind can be dispatched for target
func Supported(target Target, kind models.Action) bool {
	_, ok := operations[opKey{target, kind}]
	return ok
}

// ConfirmPrompt returns the confirmation question for a destructive action,
// or "" when the action needs no confirmation.
func ConfirmPrompt(target Target, kind models.Action) string {
	return operations[opKey{target, kind}].confirm
}

type pendingKey struct {
	target Target
	kind   models.Action
	id     models.ID
}

// Dispatcher runs actions
type Dispatcher struct {
	backend   Backend
	confirmer Confirmer
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	pending map[pendingKey]struct{}
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithConfirmer sets the confirmation step for deletes
func WithConfirmer(c Confirmer) Option {
	return func(d *Dispatcher) {
		d.confirmer = c
	}
}

// WithNotifier sets where success and failure notifications go
func WithNotifier(n notify.Notifier) Option {
	return func(d *Dispatcher) {
		d.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithMetrics enables action counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a dispatcher. Without WithConfirmer every delete is declined.
func New(backend Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:  backend,
		notifier: notify.Discard,
		logger:   slog.New(slog.DiscardHandler),
		pending:  make(map[pendingKey]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.confirmer == nil {
		d.confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
			return false, nil
		})
	}
	d.logger = d.logger.With("component", "action")
	return d
}

// Pending reports whether the action is currently in flight
func (d *Dispatcher) Pending(target Target, kind models.Action, id models.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[pendingKey{target, kind, id}]
	return ok
}

// Dispatch performs the action. It does not re-check the entity's state;
// callers only offer actions valid for it.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	op, ok := operations[opKey{req.Target, req.Kind}]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnsupported, req.Kind, req.Target)
	}

	key := pendingKey{req.Target, req.Kind, req.ID}
	d.mu.Lock()
	if _, busy := d.pending[key]; busy {
		d.mu.Unlock()
		return fmt.Errorf("%s %s %s: %w", req.Kind, req.Target, req.ID, ErrPending)
	}
	d.pending[key] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
	}()

	log := d.logger.With("target", req.Target, "action", req.Kind, "id", req.ID)

	if op.confirm != "" {
		confirmed, err := d.confirmer.Confirm(ctx, op.confirm)
		if err != nil {
			return fmt.Errorf("confirm %s %s: %w", req.Kind, req.Target, err)
		}
		if !confirmed {
			d.metrics.IncAction(string(req.Target), string(req.Kind), metrics.ResultCanceled)
			log.Debug("action declined")
			return ErrCanceled
		}
	}

	if err := op.call(d.backend, ctx, req.ID); err != nil {
		d.metrics.IncAction(string(req.Target), string(req.Kind), metrics.ResultError)
		log.Warn("action failed", "error", err)
		d.notifier.Error(op.failure)
		return fmt.Errorf("%s %s %s: %w", req.Kind, req.Target, req.ID, err)
	}

	if req.Refresh != nil {
		req.Refresh.Refresh()
	}
	d.metrics.IncAction(string(req.Target), string(req.Kind), metrics.ResultOK)
	log.Info("action completed")
	d.notifier.Success(op.success)
	return nil
}
