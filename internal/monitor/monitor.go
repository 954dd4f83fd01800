package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simwatch/config"
	"simwatch/internal/models"
	"simwatch/internal/notifier"
	"simwatch/internal/onlinesim"

	"github.com/sirupsen/logrus"
)

// MarketClient is the marketplace surface the loop needs.
type MarketClient interface {
	CheckAvailability(ctx context.Context) ([]models.AvailabilityRecord, error)
	Purchase(ctx context.Context, rec models.AvailabilityRecord) (models.PurchasedNumber, error)
}

// Ledger is the durable purchased-numbers set.
type Ledger interface {
	Contains(number string) (bool, error)
	Record(pn models.PurchasedNumber) error
}

// Monitor runs the check → purchase → notify cycle on a fixed interval.
// Exactly one cycle is in flight at a time; a new cycle never starts before
// the previous one's wait completes.
type Monitor struct {
	client    MarketClient
	ledger    Ledger
	notifiers []notifier.Notifier
	cfg       *config.Config
	log       *logrus.Logger
}

// New creates a monitor over its collaborators.
func New(client MarketClient, ledger Ledger, notifiers []notifier.Notifier, cfg *config.Config, log *logrus.Logger) *Monitor {
	return &Monitor{
		client:    client,
		ledger:    ledger,
		notifiers: notifiers,
		cfg:       cfg,
		log:       log,
	}
}

// Start runs cycles until ctx is cancelled or a fatal error surfaces. The
// first cycle runs immediately. Cancellation is honored between cycles and
// between purchases, never mid-purchase-call, so Start returning nil means
// the ledger reflects every purchase that went through. A non-nil return is
// a fatal condition (rejected credentials under the terminate policy, or an
// untrustworthy ledger).
func (m *Monitor) Start(ctx context.Context) error {
	m.log.WithFields(logrus.Fields{
		"service":  m.cfg.Service,
		"country":  m.cfg.Country,
		"interval": m.cfg.CheckInterval,
		"quantity": m.cfg.PurchaseQuantity,
	}).Info("monitor started")

	for {
		rateLimited, err := m.runCycle(ctx)
		if err != nil {
			return err
		}

		wait := m.cfg.CheckInterval
		if rateLimited {
			// The API asked us to slow down; stretch this one wait.
			wait = 2 * m.cfg.CheckInterval
			m.log.WithField("wait", wait).Warn("rate limited, stretching next wait")
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.log.Info("shutdown signal received, stopping monitor")
			return nil
		case <-timer.C:
		}
	}
}

// runCycle executes one poll-purchase-notify cycle. It reports whether the
// marketplace rate limited the check, and returns an error only for fatal
// conditions; everything else is logged and absorbed.
func (m *Monitor) runCycle(ctx context.Context) (rateLimited bool, err error) {
	start := time.Now()

	available, err := m.client.CheckAvailability(ctx)
	if err != nil {
		switch {
		case errors.Is(err, onlinesim.ErrRateLimited):
			m.log.WithError(err).Warn("availability check rate limited")
			return true, nil
		case errors.Is(err, onlinesim.ErrAuth):
			if m.cfg.AuthFailurePolicy == config.AuthRetry {
				m.log.WithError(err).Error("API key rejected, retrying per AUTH_FAILURE_POLICY")
				return false, nil
			}
			return false, fmt.Errorf("availability check: %w", err)
		default:
			// Transient failures and anything unclassified retry next cycle.
			m.log.WithError(err).Warn("availability check failed, retrying next cycle")
			return false, nil
		}
	}

	unseen := make([]models.AvailabilityRecord, 0, len(available))
	thisCycle := make(map[string]bool, len(available))
	for _, rec := range available {
		if thisCycle[rec.Number] {
			continue
		}
		known, lerr := m.ledger.Contains(rec.Number)
		if lerr != nil {
			// If the ledger cannot be trusted we must stop purchasing.
			return false, fmt.Errorf("ledger lookup: %w", lerr)
		}
		if !known {
			unseen = append(unseen, rec)
			thisCycle[rec.Number] = true
		}
	}

	if len(unseen) == 0 {
		m.log.WithFields(logrus.Fields{
			"available": len(available),
			"took":      time.Since(start).Round(time.Millisecond),
		}).Info("no unseen numbers this cycle")
		return false, nil
	}

	if !m.cfg.AutoPurchase {
		m.log.WithField("unseen", len(unseen)).Info("unseen numbers available, auto-purchase disabled")
		return false, nil
	}

	batch, rateLimited, fatal := m.purchaseBatch(ctx, unseen)

	if len(batch) > 0 {
		m.notify(ctx, batch)
	}

	m.log.WithFields(logrus.Fields{
		"available": len(available),
		"unseen":    len(unseen),
		"purchased": len(batch),
		"took":      time.Since(start).Round(time.Millisecond),
	}).Info("cycle complete")

	return rateLimited, fatal
}

// purchaseBatch buys unseen numbers in API order, up to the configured
// quantity, recording each success in the ledger immediately so a mid-batch
// failure preserves prior successes. It returns the successful purchases,
// whether the marketplace rate limited a purchase (the batch ends there and
// the next wait stretches), and any fatal error to surface after
// notification.
func (m *Monitor) purchaseBatch(ctx context.Context, unseen []models.AvailabilityRecord) ([]models.PurchasedNumber, bool, error) {
	batch := make([]models.PurchasedNumber, 0, m.cfg.PurchaseQuantity)

	for _, rec := range unseen {
		if len(batch) >= m.cfg.PurchaseQuantity {
			break
		}
		if ctx.Err() != nil {
			m.log.WithField("purchased", len(batch)).Info("shutdown requested, not starting another purchase")
			break
		}

		// The purchase runs under its own timeout, detached from the loop
		// context, so a shutdown signal never aborts it mid-call and its
		// result is recorded before exit.
		callCtx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
		pn, err := m.client.Purchase(callCtx, rec)
		cancel()

		if err != nil {
			switch {
			case errors.Is(err, onlinesim.ErrSoldOut):
				m.log.WithField("number", rec.Number).Warn("number taken between check and purchase")
				continue
			case errors.Is(err, onlinesim.ErrRateLimited):
				m.log.WithError(err).WithField("number", rec.Number).Warn("purchase rate limited, ending batch")
				return batch, true, nil
			case errors.Is(err, onlinesim.ErrNoBalance):
				m.log.WithError(err).Error("insufficient balance, skipping remaining purchases this cycle")
				return batch, false, nil
			case errors.Is(err, onlinesim.ErrAuth):
				if m.cfg.AuthFailurePolicy == config.AuthRetry {
					m.log.WithError(err).Error("API key rejected during purchase, retrying per AUTH_FAILURE_POLICY")
					return batch, false, nil
				}
				return batch, false, fmt.Errorf("purchase: %w", err)
			default:
				m.log.WithError(err).WithField("number", rec.Number).Warn("purchase failed")
				continue
			}
		}

		if err := m.ledger.Record(pn); err != nil {
			return batch, false, fmt.Errorf("record purchase %s: %w", pn.Number, err)
		}
		batch = append(batch, pn)
		m.log.WithFields(logrus.Fields{
			"number":      pn.Number,
			"transaction": pn.TransactionID,
			"price":       pn.Price,
		}).Info("purchased number")
	}

	return batch, false, nil
}

// notify fans the batch out to every configured channel. Delivery failures
// are logged and never roll back the ledger.
func (m *Monitor) notify(ctx context.Context, batch []models.PurchasedNumber) {
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, batch); err != nil {
			m.log.WithError(err).WithField("purchased", len(batch)).Error("notification delivery failed")
		}
	}
}
