package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrh/nightaudit/internal/models"
)

func TestLogNotifierReportsSuccess(t *testing.T) {
	n := &LogNotifier{Recipients: []string{"accounting@wrh.example"}}

	res := n.Notify(context.Background(), "reports/2025-07-15/2025-07-14_JE.csv",
		"reports/2025-07-15/2025-07-14_StatJE.csv", models.RunSummary{FilesFound: 3, ReportsGenerated: 2})

	assert.True(t, res.Success)
	assert.Equal(t, []string{"accounting@wrh.example"}, res.Recipients)
}

func TestMockNotifierRecordsCalls(t *testing.T) {
	n := &MockNotifier{Result: models.NotifyResult{Success: false, Error: "smtp down"}}

	res := n.Notify(context.Background(), "je.csv", "stat.csv", models.RunSummary{FilesFound: 1})

	assert.False(t, res.Success)
	require.Len(t, n.Calls, 1)
	assert.Equal(t, "je.csv", n.Calls[0].JEKey)
	assert.Equal(t, "stat.csv", n.Calls[0].StatJEKey)
	assert.Equal(t, 1, n.Calls[0].Summary.FilesFound)
}
