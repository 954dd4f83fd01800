package notifier

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"simwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch() []models.PurchasedNumber {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.PurchasedNumber{
		{Number: "+36201111111", TransactionID: "987654", Price: 0.19, Country: 36, Service: "foodora", PurchasedAt: at},
		{Number: "+36202222222", TransactionID: "987655", Price: 0.21, Country: 36, Service: "foodora", PurchasedAt: at},
	}
}

func TestNotifySubmitsOneMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := NewEmail(EmailConfig{
		Host:      "smtp.example.com",
		Port:      587,
		Sender:    "monitor@example.com",
		Password:  "secret",
		Recipient: "operator@example.com",
	})
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, n.Notify(context.Background(), testBatch()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "monitor@example.com", gotFrom)
	assert.Equal(t, []string{"operator@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Purchased 2 foodora number(s) in country 36")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "+36201111111")
	assert.Contains(t, body, "+36202222222")
	assert.Contains(t, body, "987654")
	assert.Contains(t, body, "$0.19")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
}

func TestNotifyWrapsDeliveryFailure(t *testing.T) {
	n := NewEmail(EmailConfig{Host: "smtp.example.com", Port: 587, Sender: "a@b", Password: "x", Recipient: "c@d"})
	relayErr := errors.New("454 relay unavailable")
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

	err := n.Notify(context.Background(), testBatch())
	require.Error(t, err)
	assert.ErrorIs(t, err, relayErr)
	assert.Contains(t, err.Error(), "c@d")
}
