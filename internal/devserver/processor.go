package devserver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/disparo/internal/metrics"
	"github.com/foxzi/disparo/internal/models"
)

var errNotActive = errors.New("campaign is no longer active")

// ProcessorConfig contains processor configuration
type ProcessorConfig struct {
	Interval  time.Duration
	SendBatch int
	Quota     int
}

// Processor stands in for the service's background workers. Each pass it
// validates uploaded lists and advances active campaigns.
type Processor struct {
	store     *Store
	interval  time.Duration
	sendBatch int
	quota     int
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewProcessor creates a new processor
func NewProcessor(store *Store, cfg ProcessorConfig, m *metrics.Metrics, logger *slog.Logger) *Processor {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.SendBatch <= 0 {
		cfg.SendBatch = 25
	}
	if cfg.Quota <= 0 {
		cfg.Quota = DefaultQuota
	}

	return &Processor{
		store:     store,
		interval:  cfg.Interval,
		sendBatch: cfg.SendBatch,
		quota:     cfg.Quota,
		metrics:   m,
		logger:    logger.With("component", "processor"),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the processing loop
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("starting processor", "interval", p.interval, "send_batch", p.sendBatch, "quota", p.quota)

	p.wg.Add(1)
	go p.run(ctx)
}

// Stop stops the processor and waits for the current pass to finish
func (p *Processor) Stop() {
	p.logger.Info("stopping processor")
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("processor stopped")
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("processor stopped by context")
			return
		case <-p.stopCh:
			p.logger.Debug("processor stopped by signal")
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("processing pass failed", "error", err)
			}
		}
	}
}

// ProcessOnce runs a single pass over lists and campaigns
func (p *Processor) ProcessOnce(ctx context.Context) error {
	if err := p.processLists(ctx); err != nil {
		return err
	}
	return p.advanceCampaigns(ctx)
}

func (p *Processor) processLists(ctx context.Context) error {
	lists, err := p.store.ListLists(ctx)
	if err != nil {
		return err
	}

	for i := range lists {
		l := &lists[i]
		if l.Status != models.ListProcessing {
			continue
		}
		logger := p.logger.With("list_id", l.ID)

		fileName, data, err := p.store.PendingUpload(ctx, l.ID)
		if errors.Is(err, ErrNotFound) {
			logger.Warn("processing list has no upload, marking failed")
			l.Status = models.ListFailed
			if err := p.finishList(ctx, l, nil); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		recipients, err := ParseRecipients(fileName, data)
		if err != nil {
			logger.Warn("failed to parse upload", "file", fileName, "error", err)
			l.Status = models.ListFailed
			if err := p.finishList(ctx, l, nil); err != nil {
				return err
			}
			continue
		}

		contacts := make([]models.Contact, 0, len(recipients))
		l.TotalCount, l.ValidCount, l.InvalidCount = 0, 0, 0
		for _, rcpt := range recipients {
			contacts = append(contacts, models.Contact{
				ID:      models.ID(uuid.NewString()),
				ListID:  l.ID,
				Email:   rcpt.Email,
				Name:    rcpt.Name,
				IsValid: rcpt.Valid,
			})
			l.TotalCount++
			if rcpt.Valid {
				l.ValidCount++
			} else {
				l.InvalidCount++
			}
		}
		l.Status = models.ListCompleted

		if err := p.finishList(ctx, l, contacts); err != nil {
			return err
		}
		logger.Info("list processed", "total", l.TotalCount, "valid", l.ValidCount, "invalid", l.InvalidCount)
	}
	return nil
}

// finishList stores the outcome of a list. A list deleted while it was
// processing is skipped.
func (p *Processor) finishList(ctx context.Context, l *models.List, contacts []models.Contact) error {
	err := p.store.CompleteList(ctx, l, contacts)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.metrics.IncListProcessed(string(l.Status))
	return nil
}

func (p *Processor) advanceCampaigns(ctx context.Context) error {
	campaigns, err := p.store.ListCampaigns(ctx)
	if err != nil {
		return err
	}

	now := p.now()
	for _, c := range campaigns {
		if c.Status != models.CampaignActive {
			continue
		}

		sentToday, err := p.store.SentOn(ctx, now, "")
		if err != nil {
			return err
		}
		campaignToday, err := p.store.SentOn(ctx, now, c.ID)
		if err != nil {
			return err
		}

		dailyLimit := c.DailyLimit
		if dailyLimit <= 0 {
			dailyLimit = defaultDailyLimit
		}
		n := min(
			p.sendBatch,
			dailyLimit-campaignToday,
			p.quota-sentToday,
			c.TotalRecipients-c.SentCount,
		)
		if n <= 0 && c.SentCount < c.TotalRecipients {
			continue
		}
		n = max(n, 0)

		err = p.store.RecordSends(ctx, now, c.ID, n, func(stored *models.Campaign) error {
			if stored.Status != models.CampaignActive {
				return errNotActive
			}
			stored.SentCount += n
			if stored.SentCount >= stored.TotalRecipients {
				stored.Status = models.CampaignCompleted
				completed := now
				stored.CompletedAt = &completed
			}
			return nil
		})
		if errors.Is(err, errNotActive) || errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		p.metrics.AddEmailsSent(n)
		p.logger.Debug("campaign advanced", "campaign_id", c.ID, "sent", n)
	}
	return nil
}
