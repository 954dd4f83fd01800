package notifier

import (
	"context"

	"simwatch/internal/models"
)

// Notifier delivers a purchase summary to the operator. The monitor only
// calls Notify with a non-empty batch, and a delivery failure must have no
// side effect beyond the returned error.
type Notifier interface {
	Notify(ctx context.Context, batch []models.PurchasedNumber) error
}
