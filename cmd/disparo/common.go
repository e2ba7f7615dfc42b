package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/foxzi/disparo/internal/action"
	"github.com/foxzi/disparo/internal/app"
	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/config"
	"github.com/foxzi/disparo/internal/metrics"
	"github.com/foxzi/disparo/internal/notify"
	"github.com/foxzi/disparo/internal/poll"
)

// session holds what every API command needs
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	client   *client.Client
	feed     *notify.Feed
	closeLog func() error
	server   *metrics.Server
}

// openSession loads configuration and builds the API client. When quiet is
// set, logs are discarded unless logging.file is configured.
func openSession(quiet bool) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := app.OpenLogger(cfg.Logging, quiet)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	s := &session{
		cfg:      cfg,
		logger:   logger,
		feed:     notify.NewFeed(20),
		closeLog: closeLog,
	}

	opts := []client.Option{
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
		s.server = metrics.NewServer(s.metrics, cfg.Metrics.ListenAddr, cfg.Metrics.Path, logger)
		go func() {
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		opts = append(opts, client.WithMetrics(s.metrics))
	}
	s.client = client.NewClient(cfg.API.BaseURL, cfg.API.Token, opts...)

	return s, nil
}

// printNotifications echoes notifications on stderr
func (s *session) printNotifications() {
	s.feed.OnPush(func(n notify.Notification) {
		mark := "✓"
		if n.Level == notify.LevelError {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", mark, n.Message)
	})
}

func (s *session) Close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("metrics server shutdown error", "error", err)
		}
	}
	if err := s.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}

// dispatcher returns an action dispatcher that asks on the terminal before
// deleting, unless yes is set.
func (s *session) dispatcher(yes bool) *action.Dispatcher {
	confirmer := action.AlwaysConfirm
	if !yes {
		confirmer = promptConfirmer(os.Stdin, os.Stderr)
	}
	return action.New(s.client,
		action.WithConfirmer(confirmer),
		action.WithNotifier(s.feed),
		action.WithLogger(s.logger),
		action.WithMetrics(s.metrics),
	)
}

// dispatch runs one action and reports a declined confirmation as success
func (s *session) dispatch(ctx context.Context, yes bool, req action.Request) error {
	s.printNotifications()
	err := s.dispatcher(yes).Dispatch(ctx, req)
	if errors.Is(err, action.ErrCanceled) {
		fmt.Println("Cancelado")
		return nil
	}
	return err
}

func promptConfirmer(in io.Reader, out io.Writer) action.Confirmer {
	return action.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [s/N] ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "sim", "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

// watch attaches a refresh schedule and renders every snapshot until
// interrupted or until reports true for a snapshot. A not-found error ends
// the watch.
func watch[T any](s *session, name string, interval time.Duration, key string, errMsg string,
	fetch poll.FetchFunc[T], render func(T), until func(T) bool) error {
	s.printNotifications()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fatal := make(chan error, 1)
	finished := make(chan struct{}, 1)
	syncer, err := poll.New(name, interval, fetch, poll.Options[T]{
		Logger:       s.logger,
		Notifier:     s.feed,
		Metrics:      s.metrics,
		ErrorMessage: errMsg,
		OnUpdate: func(snap poll.Snapshot[T]) {
			fmt.Printf("\n── %s  %s\n", name, snap.FetchedAt.Format("15:04:05"))
			render(snap.Value)
			if until != nil && until(snap.Value) {
				select {
				case finished <- struct{}{}:
				default:
				}
			}
		},
		OnError: func(key string, err error) {
			kind := client.Classify(err)
			s.logger.Debug("watch fetch failed", "view", name, "key", key, "kind", kind)
			if kind == client.KindNotFound {
				select {
				case fatal <- err:
				default:
				}
			}
		},
	})
	if err != nil {
		return err
	}

	h := syncer.Attach(key)
	defer func() {
		h.Detach()
		h.Wait()
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-finished:
		return nil
	case err := <-fatal:
		return err
	}
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
