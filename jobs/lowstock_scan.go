package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/atlaspos/atlaspos/internal/inventory"
)

// StockReader is the slice of the inventory service the jobs need.
type StockReader interface {
	LowStock(ctx context.Context) ([]inventory.Item, error)
	GetSummary(ctx context.Context) (inventory.Summary, error)
}

// EmailEnqueuer submits alert emails to the queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// LowStockScanJob sweeps the ledger for items at or below their minimum
// level and queues one alert email per sweep.
type LowStockScanJob struct {
	stock   StockReader
	emailer EmailEnqueuer
	logger  *slog.Logger
}

// NewLowStockScanJob constructs the job.
func NewLowStockScanJob(stock StockReader, emailer EmailEnqueuer, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{stock: stock, emailer: emailer, logger: logger}
}

// Handle processes TaskTypeLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	items, err := j.stock.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	if len(items) == 0 {
		j.logger.Info("low stock scan clean")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d product(s) at or below minimum stock level:\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "  %s  %s  on hand %d, minimum %d\n",
			item.ProductCode, item.ProductName, item.CurrentStock, item.MinStockLevel)
	}

	j.logger.Warn("low stock detected", slog.Int("count", len(items)))

	if j.emailer == nil || payload.NotifyEmail == "" {
		return nil
	}
	_, err = j.emailer.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      payload.NotifyEmail,
		Subject: fmt.Sprintf("Low stock alert: %d product(s)", len(items)),
		Body:    b.String(),
	})
	if err != nil {
		return fmt.Errorf("enqueue low stock alert: %w", err)
	}
	return nil
}

// SummaryWarmupJob refreshes the cached inventory summary so dashboard
// reads stay warm between invalidations.
type SummaryWarmupJob struct {
	stock  StockReader
	logger *slog.Logger
}

// NewSummaryWarmupJob constructs the job.
func NewSummaryWarmupJob(stock StockReader, logger *slog.Logger) *SummaryWarmupJob {
	return &SummaryWarmupJob{stock: stock, logger: logger}
}

// Handle processes TaskTypeSummaryWarmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	summary, err := j.stock.GetSummary(ctx)
	if err != nil {
		return fmt.Errorf("summary warmup: %w", err)
	}
	j.logger.Info("inventory summary warmed",
		slog.Int64("products", summary.Products),
		slog.Int64("low_stock", summary.LowStock))
	return nil
}
