package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeLowStockScan is the task type for the nightly low stock sweep.
	TaskTypeLowStockScan = "inventory:low_stock_scan"
	// TaskTypeSummaryWarmup refreshes the cached inventory summary.
	TaskTypeSummaryWarmup = "inventory:summary_warmup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/Mailpit in phase 2.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// LowStockScanPayload configures a low stock sweep.
type LowStockScanPayload struct {
	NotifyEmail string `json:"notify_email"`
}

// NewLowStockScanTask constructs the low stock sweep task.
func NewLowStockScanTask(notifyEmail string) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{NotifyEmail: notifyEmail})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStockScan, data), nil
}

// NewSummaryWarmupTask constructs the summary warmup task.
func NewSummaryWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSummaryWarmup, nil)
}
