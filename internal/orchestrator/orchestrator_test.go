package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrh/nightaudit/internal/blobstore"
	"wrh/nightaudit/internal/config"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/notify"
	"wrh/nightaudit/internal/propertydir"
	"wrh/nightaudit/internal/reportparser"
)

var runClock = time.Date(2025, time.July, 15, 4, 30, 0, 0, time.UTC)

const bardReport = `THE BARD'S INN HOTEL
Daily Revenue Report
Business Date: 2025-07-14

1001   ROOM REVENUE             1,542.50
2001   CITY TAX                   120.00
9001   ROOMS SOLD                  42.00
9999   UNMAPPED THING              10.00
`

const mappingCSV = `Rec Id,Src Acct Code,Src Acct Desc,Xref Key,Acct Id,Property Id,Property Name,Acct Code,Acct Suffix,Acct Name,Multiplier,Created,Updated
1,1001,Room Revenue,X1,10,0,,40110,634,Rooms Revenue,,,
2,2001,City Tax,X2,11,0,,21500,112,Occupancy Tax Payable,,,
3,9001,Rooms Sold,X3,12,0,,90001,418,Rooms Sold,,,
`

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Storage.IncomingBucket = "wrh-daily-reports"
	cfg.Storage.ProcessedBucket = "wrh-processed-reports"
	cfg.Storage.IncomingPrefix = "daily-files/"
	cfg.Storage.DuplicatePrefix = "duplicates/"
	cfg.Storage.ReportPrefix = "reports/"
	cfg.Mapping.Key = "mapping/account-mapping.csv"
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelayMs = 1
	cfg.Retry.Multiplier = 2.0
	cfg.Retry.MaxDelayMs = 5
	return cfg
}

func testProperties() *propertydir.Directory {
	return propertydir.New([]models.PropertyConfig{
		{
			PropertyName:             "THE BARD'S INN HOTEL",
			LocationID:               "24",
			SubsidiaryID:             "3",
			SubsidiaryFullName:       "WRH : Bard's Inn LLC",
			LocationName:             "Bard's Inn",
			CreditCardDepositAccount: "10210-114",
		},
		{
			PropertyName:       "ASHLAND SUITES",
			LocationID:         "31",
			SubsidiaryID:       "5",
			SubsidiaryFullName: "WRH : Ashland Suites LLC",
		},
	})
}

func testHarness() (*Orchestrator, *blobstore.MemoryStore, *blobstore.MemoryStore, *notify.MockNotifier) {
	incoming := blobstore.NewMemoryStore()
	processed := blobstore.NewMemoryStore()
	processed.Seed("mapping/account-mapping.csv", []byte(mappingCSV), runClock)

	notifier := &notify.MockNotifier{Result: models.NotifyResult{Success: true}}

	o := New(incoming, processed, testProperties(), notifier, testConfig())
	o.SetClock(func() time.Time { return runClock })
	return o, incoming, processed, notifier
}

func TestRunDailyHappyPath(t *testing.T) {
	o, incoming, processed, notifier := testHarness()
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.txt", []byte(bardReport), runClock.Add(-time.Hour))

	result := o.Run(context.Background(), Trigger{Timestamp: runClock})

	require.Equal(t, 200, result.StatusCode, result.Message)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"daily-files/BARD01/2025-07-15/audit.txt"}, result.ProcessedFiles)
	assert.Equal(t, 1, result.Summary.FilesFound)
	assert.Equal(t, []string{"THE BARD'S INN HOTEL"}, result.Summary.PropertiesProcessed)
	assert.Equal(t, 2, result.Summary.ReportsGenerated)

	// Artifacts land under the run folder, named by business date.
	jeBody, err := processed.Get(context.Background(), "reports/2025-07-15/2025-07-14_JE.csv")
	require.NoError(t, err)
	je := string(jeBody)
	assert.Contains(t, je, `"WR2420250714","07/14/2025","WRH : Bard's Inn LLC","3","40110","634","24","Rooms Revenue","","1542.50","ROOM REVENUE",""`)
	assert.Contains(t, je, `"21500","112"`)
	// The statistical line and the unmapped line stay out of the JE file.
	assert.NotContains(t, je, "90001")
	assert.NotContains(t, je, "UNMAPPED THING")

	statBody, err := processed.Get(context.Background(), "reports/2025-07-15/2025-07-14_StatJE.csv")
	require.NoError(t, err)
	assert.Contains(t, string(statBody), `"07/14/2025 WRH"`)
	assert.Contains(t, string(statBody), `"90001","418"`)
	assert.Contains(t, string(statBody), `"42.00"`)

	require.Len(t, notifier.Calls, 1)
	assert.Equal(t, "reports/2025-07-15/2025-07-14_JE.csv", notifier.Calls[0].JEKey)
	assert.Equal(t, "reports/2025-07-15/2025-07-14_StatJE.csv", notifier.Calls[0].StatJEKey)
}

func TestRunDeduplicatesBeforeAndAfterParsing(t *testing.T) {
	o, incoming, _, _ := testHarness()

	// Same property, same filename and size in two folders: phase 1 keeps
	// the newer upload and archives the older one.
	incoming.Seed("daily-files/BARD01/2025-07-14/audit.txt", []byte(bardReport), runClock.Add(-3*time.Hour))
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.txt", []byte(bardReport), runClock.Add(-time.Hour))

	// Different filename, same content identity: phase 2 collapses it.
	incoming.Seed("daily-files/BARD01/2025-07-15/audit-resend.txt", []byte(bardReport), runClock.Add(-time.Hour))

	result := o.Run(context.Background(), Trigger{Timestamp: runClock})

	require.Equal(t, 200, result.StatusCode, result.Message)
	assert.Equal(t, 3, result.Summary.FilesFound)
	// One report survives both passes.
	assert.Len(t, result.ProcessedFiles, 1)

	// The phase-1 duplicate moved into the duplicates namespace.
	var archived bool
	for _, key := range incoming.Keys() {
		if strings.HasPrefix(key, "duplicates/BARD01/2025-07-14/") {
			archived = true
		}
	}
	assert.True(t, archived)
}

func TestRunBusinessDateModeFiltersByContent(t *testing.T) {
	o, incoming, processed, _ := testHarness()

	// Next-day sender: file lands in the 07-15 folder but reports 07-14.
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.txt", []byte(bardReport), runClock.Add(-200*time.Hour))

	// Same folder, different business date inside the content.
	other := strings.ReplaceAll(bardReport, "2025-07-14", "2025-07-15")
	other = strings.ReplaceAll(other, "THE BARD'S INN HOTEL", "ASHLAND SUITES HOTEL")
	incoming.Seed("daily-files/ASH02/2025-07-15/audit.txt", []byte(other), runClock.Add(-200*time.Hour))

	businessDate := time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)
	result := o.Run(context.Background(), Trigger{Timestamp: runClock, BusinessDate: &businessDate})

	require.Equal(t, 200, result.StatusCode, result.Message)
	// Only the report whose content confirms 07-14 survives the filter.
	assert.Len(t, result.ProcessedFiles, 1)

	_, err := processed.Get(context.Background(), "reports/2025-07-15/2025-07-14_JE.csv")
	assert.NoError(t, err)
	_, err = processed.Get(context.Background(), "reports/2025-07-15/2025-07-15_JE.csv")
	assert.Error(t, err)
}

func TestRunFolderDateMode(t *testing.T) {
	o, incoming, processed, _ := testHarness()

	// Old files, far outside any daily window.
	incoming.Seed("daily-files/BARD01/2025-07-01/audit.txt",
		[]byte(strings.ReplaceAll(bardReport, "2025-07-14", "2025-06-30")), runClock.Add(-400*time.Hour))

	target := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	result := o.Run(context.Background(), Trigger{Timestamp: runClock, TargetDate: &target})

	require.Equal(t, 200, result.StatusCode, result.Message)
	assert.Equal(t, 1, result.Summary.FilesFound)

	// Reprocessed artifacts land under the target folder date.
	_, err := processed.Get(context.Background(), "reports/2025-07-01/2025-06-30_JE.csv")
	assert.NoError(t, err)
}

func TestRunEmptyDiscoveryStillSucceeds(t *testing.T) {
	o, _, _, notifier := testHarness()

	result := o.Run(context.Background(), Trigger{Timestamp: runClock})

	require.Equal(t, 200, result.StatusCode, result.Message)
	assert.Equal(t, 0, result.Summary.FilesFound)
	assert.Empty(t, result.ProcessedFiles)
	assert.Equal(t, 0, result.Summary.ReportsGenerated)
	// Nothing to report, nothing to notify about.
	assert.Len(t, notifier.Calls, 1)
}

func TestRunFailedParseIsCountedNotFatal(t *testing.T) {
	o, incoming, _, _ := testHarness()
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.txt", []byte("no property header here\n"), runClock.Add(-time.Hour))

	result := o.Run(context.Background(), Trigger{Timestamp: runClock})

	require.Equal(t, 200, result.StatusCode, result.Message)
	assert.Equal(t, 1, result.Summary.FilesFound)
	assert.Len(t, result.ProcessedFiles, 1)
}

func TestRunUnreadablePDFProducesNoArtifacts(t *testing.T) {
	o, incoming, processed, notifier := testHarness()
	o.SetExtractor(reportparser.NewMockTextExtractor("", assert.AnError))
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.pdf", []byte("not a pdf"), runClock.Add(-time.Hour))

	result := o.Run(context.Background(), Trigger{Timestamp: runClock})

	require.Equal(t, 200, result.StatusCode, result.Message)
	assert.Equal(t, 1, result.Summary.FilesFound)
	assert.Equal(t, 0, result.Summary.ReportsGenerated)

	// The report failed before a business date could be read, so there is
	// no date to name an artifact after and nothing gets written.
	for _, key := range processed.Keys() {
		assert.NotContains(t, key, "0001-01-01")
	}
	require.Len(t, notifier.Calls, 1)
	assert.Empty(t, notifier.Calls[0].JEKey)
	assert.Empty(t, notifier.Calls[0].StatJEKey)
}

func TestRunMappingSheetUnavailableFails(t *testing.T) {
	o, incoming, processed, _ := testHarness()
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.txt", []byte(bardReport), runClock.Add(-time.Hour))
	require.NoError(t, processed.Delete(context.Background(), "mapping/account-mapping.csv"))

	result := o.Run(context.Background(), Trigger{Timestamp: runClock})

	assert.Equal(t, 500, result.StatusCode)
	assert.Contains(t, result.Message, "mapping")
}

func TestRunDryRunSkipsUploadAndNotify(t *testing.T) {
	o, incoming, processed, notifier := testHarness()
	incoming.Seed("daily-files/BARD01/2025-07-15/audit.txt", []byte(bardReport), runClock.Add(-time.Hour))

	result := o.Run(context.Background(), Trigger{Timestamp: runClock, DryRun: true})

	require.Equal(t, 200, result.StatusCode, result.Message)
	_, err := processed.Get(context.Background(), "reports/2025-07-15/2025-07-14_JE.csv")
	assert.Error(t, err)
	assert.Empty(t, notifier.Calls)
}

func TestRunResendMode(t *testing.T) {
	o, _, processed, notifier := testHarness()
	processed.Seed("reports/2025-07-15/2025-07-14_JE.csv", []byte("je body"), runClock)
	processed.Seed("reports/2025-07-15/2025-07-14_StatJE.csv", []byte("stat body"), runClock)

	result := o.Run(context.Background(), Trigger{Timestamp: runClock, ResendEmail: true})

	require.Equal(t, 200, result.StatusCode, result.Message)
	require.Len(t, notifier.Calls, 1)
	assert.Equal(t, "reports/2025-07-15/2025-07-14_JE.csv", notifier.Calls[0].JEKey)
	assert.Equal(t, "reports/2025-07-15/2025-07-14_StatJE.csv", notifier.Calls[0].StatJEKey)
}

func TestRunResendModeNoArtifacts(t *testing.T) {
	o, _, _, _ := testHarness()

	result := o.Run(context.Background(), Trigger{Timestamp: runClock, ResendEmail: true})

	assert.Equal(t, 500, result.StatusCode)
	assert.Contains(t, result.Message, "no generated reports")
}

func TestTriggerMode(t *testing.T) {
	d := time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, ModeDaily, Trigger{}.Mode())
	assert.Equal(t, ModeFolderDate, Trigger{TargetDate: &d}.Mode())
	assert.Equal(t, ModeBusinessDate, Trigger{BusinessDate: &d}.Mode())
	assert.Equal(t, ModeResend, Trigger{ResendEmail: true, TargetDate: &d}.Mode())
}
