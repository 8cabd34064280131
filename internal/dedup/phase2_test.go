package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrh/nightaudit/internal/models"
)

func report(key, propertyName string, businessDate time.Time, parseErrors ...string) models.ParsedReport {
	return models.ParsedReport{
		SourceFile:   models.FileIdentity{StorageKey: key},
		PropertyName: propertyName,
		BusinessDate: businessDate,
		ParseErrors:  parseErrors,
	}
}

func TestPhase2KeepsFirstPerContentIdentity(t *testing.T) {
	date := time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)

	out := Phase2([]models.ParsedReport{
		report("daily-files/BARD01/2025-07-14/audit.txt", "THE BARD'S INN HOTEL", date),
		report("daily-files/BARD01/2025-07-15/audit.txt", "THE BARD'S INN HOTEL", date),
		report("daily-files/ASH02/2025-07-15/audit.txt", "ASHLAND SUITES", date),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "daily-files/BARD01/2025-07-14/audit.txt", out[0].SourceFile.StorageKey)
	assert.Equal(t, "daily-files/ASH02/2025-07-15/audit.txt", out[1].SourceFile.StorageKey)
}

func TestPhase2NormalizesPropertyName(t *testing.T) {
	date := time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)

	out := Phase2([]models.ParsedReport{
		report("a", "The Bard's Inn Hotel", date),
		report("b", "  THE  BARD'S  INN  HOTEL ", date),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].SourceFile.StorageKey)
}

func TestPhase2DistinctDatesSurvive(t *testing.T) {
	out := Phase2([]models.ParsedReport{
		report("a", "ASHLAND SUITES", time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)),
		report("b", "ASHLAND SUITES", time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)),
	})

	assert.Len(t, out, 2)
}

func TestPhase2FailedReportsPassThrough(t *testing.T) {
	date := time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)

	out := Phase2([]models.ParsedReport{
		report("a", "", date, "no property display name found"),
		report("b", "", date, "no property display name found"),
		report("c", "ASHLAND SUITES", date),
	})

	// Failed reports have no usable identity and are never collapsed.
	assert.Len(t, out, 3)
}
