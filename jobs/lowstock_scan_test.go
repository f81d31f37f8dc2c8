package jobs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/atlaspos/atlaspos/internal/inventory"
)

type fakeStockReader struct {
	items   []inventory.Item
	summary inventory.Summary
}

func (f *fakeStockReader) LowStock(ctx context.Context) ([]inventory.Item, error) {
	return f.items, nil
}

func (f *fakeStockReader) GetSummary(ctx context.Context) (inventory.Summary, error) {
	return f.summary, nil
}

type fakeEnqueuer struct {
	sent []SendEmailPayload
}

func (f *fakeEnqueuer) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	f.sent = append(f.sent, payload)
	return &asynq.TaskInfo{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLowStockScanEnqueuesAlert(t *testing.T) {
	reader := &fakeStockReader{items: []inventory.Item{
		{ProductCode: "P-1", ProductName: "Widget", CurrentStock: 1, MinStockLevel: 5},
		{ProductCode: "P-2", ProductName: "Gadget", CurrentStock: 0, MinStockLevel: 2},
	}}
	emailer := &fakeEnqueuer{}
	job := NewLowStockScanJob(reader, emailer, discardLogger())

	task, err := NewLowStockScanTask("ops@example.com")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, emailer.sent, 1)
	require.Equal(t, "ops@example.com", emailer.sent[0].To)
	require.Contains(t, emailer.sent[0].Subject, "2 product(s)")
	require.Contains(t, emailer.sent[0].Body, "P-1")
	require.Contains(t, emailer.sent[0].Body, "P-2")
}

func TestLowStockScanCleanSendsNothing(t *testing.T) {
	emailer := &fakeEnqueuer{}
	job := NewLowStockScanJob(&fakeStockReader{}, emailer, discardLogger())

	task, err := NewLowStockScanTask("ops@example.com")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Empty(t, emailer.sent)
}

func TestLowStockScanWithoutRecipient(t *testing.T) {
	reader := &fakeStockReader{items: []inventory.Item{
		{ProductCode: "P-1", CurrentStock: 0, MinStockLevel: 1},
	}}
	emailer := &fakeEnqueuer{}
	job := NewLowStockScanJob(reader, emailer, discardLogger())

	task, err := NewLowStockScanTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Empty(t, emailer.sent)
}

func TestSummaryWarmup(t *testing.T) {
	reader := &fakeStockReader{summary: inventory.Summary{Products: 7, LowStock: 2}}
	job := NewSummaryWarmupJob(reader, discardLogger())

	require.NoError(t, job.Handle(context.Background(), NewSummaryWarmupTask()))
}
