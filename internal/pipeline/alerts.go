package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dondie52/agriconnect/internal/domain"
)

// AlertDispatcher evaluates price swings against the alert threshold and fans
// a notification out to every active farmer when the threshold is crossed.
type AlertDispatcher struct {
	users         domain.UserStore
	notifications domain.NotificationStore
	threshold     decimal.Decimal
	logger        *slog.Logger
}

// NewAlertDispatcher creates a dispatcher with the given threshold in
// absolute percent (e.g. 10 means alert at |change| >= 10%).
func NewAlertDispatcher(
	users domain.UserStore,
	notifications domain.NotificationStore,
	thresholdPct float64,
	logger *slog.Logger,
) *AlertDispatcher {
	return &AlertDispatcher{
		users:         users,
		notifications: notifications,
		threshold:     decimal.NewFromFloat(thresholdPct),
		logger:        logger.With(slog.String("component", "alerts")),
	}
}

// CheckPriceAlerts computes the percentage change between oldPrice and
// newPrice and, when |change| meets the threshold (inclusive), creates one
// notification per active farmer in a single batched write. It returns the
// number of notifications created. A non-positive oldPrice and a zero-farmer
// audience are both valid no-ops.
func (d *AlertDispatcher) CheckPriceAlerts(
	ctx context.Context,
	cropID, regionID int64,
	oldPrice, newPrice decimal.Decimal,
	cropName, regionName string,
) (int, error) {
	if oldPrice.LessThanOrEqual(decimal.Zero) {
		return 0, nil
	}

	changePct := newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100))
	if changePct.Abs().LessThan(d.threshold) {
		return 0, nil
	}

	direction := "increased"
	hint := "Consider selling now."
	if changePct.IsNegative() {
		direction = "decreased"
		hint = "Consider holding stock."
	}

	pct := changePct.StringFixed(1)
	if !changePct.IsNegative() {
		pct = "+" + pct
	}

	title := fmt.Sprintf("Price alert: %s in %s", cropName, regionName)
	message := fmt.Sprintf(
		"The price of %s in %s has %s by %s%% (from P%s to P%s). %s",
		cropName, regionName, direction, pct,
		oldPrice.StringFixed(2), newPrice.StringFixed(2), hint,
	)

	farmers, err := d.users.ListActiveFarmers(ctx)
	if err != nil {
		return 0, fmt.Errorf("pipeline: list farmers for alert: %w", err)
	}
	if len(farmers) == 0 {
		return 0, nil
	}

	ns := make([]domain.Notification, 0, len(farmers))
	for _, f := range farmers {
		ns = append(ns, domain.Notification{
			UserID:        f.ID,
			Type:          domain.NotificationPriceAlert,
			Title:         title,
			Message:       message,
			ReferenceID:   cropID,
			ReferenceType: "crop",
		})
	}

	if err := d.notifications.CreateBatch(ctx, ns); err != nil {
		return 0, fmt.Errorf("pipeline: create alert notifications: %w", err)
	}

	d.logger.InfoContext(ctx, "price alert dispatched",
		slog.String("crop", cropName),
		slog.String("region", regionName),
		slog.String("change_pct", pct),
		slog.Int("farmers", len(farmers)),
	)
	return len(ns), nil
}
