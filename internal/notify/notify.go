// Package notify defines the outbound notification contract. Delivery
// itself (email transport, recipients, templates) is an external
// collaborator; the pipeline only reports the generated artifacts and the
// run summary.
package notify

import (
	"context"

	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
)

var log = logging.GetLogger()

// SetLogger allows setting a configured logger.
func SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	log = logger
}

// Notifier announces a finished run and its artifacts.
type Notifier interface {
	Notify(ctx context.Context, jeKey, statJEKey string, summary models.RunSummary) models.NotifyResult
}

// LogNotifier is the default Notifier: it records the notification in the
// log and reports success. Used in environments without an email channel
// and in dry runs.
type LogNotifier struct {
	Recipients []string
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, jeKey, statJEKey string, summary models.RunSummary) models.NotifyResult {
	log.Info("Run notification",
		logging.Field{Key: "je_key", Value: jeKey},
		logging.Field{Key: "statje_key", Value: statJEKey},
		logging.Field{Key: "files_found", Value: summary.FilesFound},
		logging.Field{Key: "reports_generated", Value: summary.ReportsGenerated})
	return models.NotifyResult{Success: true, Recipients: n.Recipients}
}

// MockNotifier captures notifications for tests.
type MockNotifier struct {
	Calls  []MockNotifyCall
	Result models.NotifyResult
}

// MockNotifyCall records one Notify invocation.
type MockNotifyCall struct {
	JEKey     string
	StatJEKey string
	Summary   models.RunSummary
}

// Notify records the call and returns the canned result.
func (n *MockNotifier) Notify(ctx context.Context, jeKey, statJEKey string, summary models.RunSummary) models.NotifyResult {
	n.Calls = append(n.Calls, MockNotifyCall{JEKey: jeKey, StatJEKey: statJEKey, Summary: summary})
	return n.Result
}
