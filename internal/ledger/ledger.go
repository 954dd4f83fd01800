package ledger

import (
	"database/sql"
	"fmt"

	"simwatch/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is the durable set of numbers already purchased. It keeps the
// monitor from re-purchasing or re-announcing the same number across
// process restarts. A number identifier appears at most once.
type Ledger struct {
	conn *sql.DB
}

// New opens the ledger at path, creating it if needed.
func New(path string) (*Ledger, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	l := &Ledger{conn: conn}
	if err := l.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

func (l *Ledger) init() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS purchases (
		number TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		price REAL NOT NULL,
		country INTEGER NOT NULL,
		service TEXT NOT NULL,
		purchased_at DATETIME NOT NULL
	);`

	if _, err := l.conn.Exec(createTableSQL); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	return nil
}

// Contains reports whether number has already been purchased.
func (l *Ledger) Contains(number string) (bool, error) {
	var one int
	err := l.conn.QueryRow("SELECT 1 FROM purchases WHERE number = ?", number).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup %s: %w", number, err)
	}
	return true, nil
}

// Record persists a purchase before returning. Recording a number that is
// already present leaves the ledger unchanged.
func (l *Ledger) Record(pn models.PurchasedNumber) error {
	_, err := l.conn.Exec(
		"INSERT OR IGNORE INTO purchases (number, transaction_id, price, country, service, purchased_at) VALUES (?, ?, ?, ?, ?, ?)",
		pn.Number, pn.TransactionID, pn.Price, pn.Country, pn.Service, pn.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger record %s: %w", pn.Number, err)
	}
	return nil
}

// All returns every recorded purchase, oldest first.
func (l *Ledger) All() ([]models.PurchasedNumber, error) {
	rows, err := l.conn.Query("SELECT number, transaction_id, price, country, service, purchased_at FROM purchases ORDER BY purchased_at, number")
	if err != nil {
		return nil, fmt.Errorf("ledger list: %w", err)
	}
	defer rows.Close()

	var purchases []models.PurchasedNumber
	for rows.Next() {
		var pn models.PurchasedNumber
		if err := rows.Scan(&pn.Number, &pn.TransactionID, &pn.Price, &pn.Country, &pn.Service, &pn.PurchasedAt); err != nil {
			return nil, fmt.Errorf("ledger list: %w", err)
		}
		purchases = append(purchases, pn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger list: %w", err)
	}
	return purchases, nil
}
