package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"simwatch/config"
	"simwatch/internal/ledger"
	"simwatch/internal/monitor"
	"simwatch/internal/notifier"
	"simwatch/internal/onlinesim"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env file not found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("configuration error: %v", err)
	}

	log := newLogger(cfg.LogFile)

	store, err := ledger.New(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("ledger error: %v", err)
	}
	defer store.Close()

	known, err := store.All()
	if err != nil {
		store.Close()
		log.Fatalf("ledger error: %v", err)
	}
	log.WithFields(logrus.Fields{
		"path":            cfg.LedgerPath,
		"known_purchases": len(known),
	}).Info("purchase ledger loaded")
	for _, pn := range known {
		log.WithFields(logrus.Fields{
			"number":       pn.Number,
			"transaction":  pn.TransactionID,
			"purchased_at": pn.PurchasedAt,
		}).Info("ledger entry")
	}

	client := onlinesim.New(cfg.APIKey, cfg.APIBaseURL, cfg.Country, cfg.Service, cfg.RequestTimeout)

	// Probe the pool once up front so a bad key fails at startup, not
	// mid-loop.
	probeCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	count, price, err := client.Stats(probeCtx)
	cancel()
	switch {
	case errors.Is(err, onlinesim.ErrAuth):
		log.Fatalf("startup probe: %v", err)
	case err != nil:
		log.WithError(err).Warn("startup probe failed, continuing")
	default:
		log.WithFields(logrus.Fields{"count": count, "price": price}).Info("marketplace reachable")
	}

	notifiers, err := buildNotifiers(cfg)
	if err != nil {
		log.Fatalf("notifier error: %v", err)
	}
	if len(notifiers) == 0 {
		log.Warn("no notification channel configured, purchases will only be logged")
	}

	m := monitor.New(client, store, notifiers, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		stop()
		store.Close()
		log.Errorf("monitor stopped: %v", err)
		os.Exit(1)
	}
	log.Info("shut down cleanly")
}

// newLogger logs to both stdout and the configured log file, matching the
// operator's expectation of a tail-able on-disk log.
func newLogger(logFile string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if logFile == "" {
		return log
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warnf("cannot open log file %s: %v", logFile, err)
		return log
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return log
}

func buildNotifiers(cfg *config.Config) ([]notifier.Notifier, error) {
	var notifiers []notifier.Notifier
	if cfg.EmailEnabled {
		notifiers = append(notifiers, notifier.NewEmail(notifier.EmailConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Sender:    cfg.SenderEmail,
			Password:  cfg.SenderPassword,
			Recipient: cfg.RecipientEmail,
		}))
	}
	if cfg.TelegramToken != "" {
		tg, err := notifier.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}
