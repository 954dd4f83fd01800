package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"simwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPurchase(number string, at time.Time) models.PurchasedNumber {
	return models.PurchasedNumber{
		Number:        number,
		TransactionID: "tx-" + number,
		Price:         0.19,
		Country:       36,
		Service:       "foodora",
		PurchasedAt:   at,
	}
}

func TestRoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purchases.db")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	l, err := New(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(testPurchase("+36201111111", base)))
	require.NoError(t, l.Record(testPurchase("+36202222222", base.Add(time.Minute))))
	require.NoError(t, l.Record(testPurchase("+36203333333", base.Add(2*time.Minute))))
	require.NoError(t, l.Close())

	// Reload from disk, as a process restart would.
	l, err = New(path)
	require.NoError(t, err)
	defer l.Close()

	for _, number := range []string{"+36201111111", "+36202222222", "+36203333333"} {
		known, err := l.Contains(number)
		require.NoError(t, err)
		assert.True(t, known, number)
	}

	all, err := l.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "+36201111111", all[0].Number)
	assert.Equal(t, "tx-+36201111111", all[0].TransactionID)
	assert.Equal(t, 0.19, all[0].Price)
	assert.True(t, all[0].PurchasedAt.Equal(base))
}

func TestRecordIsIdempotent(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "purchases.db"))
	require.NoError(t, err)
	defer l.Close()

	pn := testPurchase("+36201111111", time.Now().UTC())
	require.NoError(t, l.Record(pn))
	require.NoError(t, l.Record(pn))

	// A second purchase object with the same identifier is also a no-op.
	dup := pn
	dup.TransactionID = "tx-other"
	require.NoError(t, l.Record(dup))

	all, err := l.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "tx-+36201111111", all[0].TransactionID)
}

func TestContainsUnknownNumber(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "purchases.db"))
	require.NoError(t, err)
	defer l.Close()

	known, err := l.Contains("+36209999999")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestNewFailsOnUnusablePath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing-dir", "purchases.db"))
	require.Error(t, err)
}
