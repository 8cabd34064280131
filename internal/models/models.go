// Package models defines the data structures passed between pipeline stages.
// Each stage consumes and produces explicit types; nothing loosely typed
// crosses a stage boundary.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FileIdentity identifies one incoming report file, derived from its storage
// key of the shape daily-files/{propertyId}/{date}/{filename}. It is
// ephemeral and recomputed on every run.
type FileIdentity struct {
	StorageKey         string
	LastModifiedAt     time.Time
	SizeBytes          int64
	PropertyIDFromPath string
	DateFolder         string
	Filename           string
}

// AccountLine is one recognized accounting fact extracted from a report.
type AccountLine struct {
	SourceCode    string
	Description   string
	Amount        decimal.Decimal
	PaymentMethod string
	OriginalLine  string
}

// ParsedReport is the result of parsing one report file. PropertyName and
// BusinessDate come from the report content and are authoritative over the
// path-derived values on SourceFile.
type ParsedReport struct {
	SourceFile   FileIdentity
	PropertyName string
	BusinessDate time.Time
	AccountLines []AccountLine
	ParseErrors  []string
}

// Failed reports whether the file could not be parsed. Failed reports are
// excluded from mapping but still counted in run totals.
func (r *ParsedReport) Failed() bool {
	return len(r.ParseErrors) > 0
}

// MappingEntry is one row of the account-mapping table. PropertyName empty
// means the entry is a global fallback.
type MappingEntry struct {
	SourceCode   string
	PropertyName string
	TargetCode   string
	TargetName   string
	Multiplier   decimal.Decimal
}

// Global reports whether the entry applies to every property.
func (e MappingEntry) Global() bool {
	return e.PropertyName == ""
}

// MappedRecord is an account line after mapping resolution.
type MappedRecord struct {
	SourceCode        string
	SourceDescription string
	SourceAmount      decimal.Decimal
	TargetCode        string
	TargetDescription string
	MappedAmount      decimal.Decimal
	PaymentMethod     string
	PropertyID        string
}

// PropertyConfig holds the accounting identifiers for one property. Lookups
// are case-insensitive on the trimmed, uppercased property name.
type PropertyConfig struct {
	PropertyName             string `yaml:"propertyName"`
	LocationID               string `yaml:"locationId"`
	SubsidiaryID             string `yaml:"subsidiaryId"`
	SubsidiaryFullName       string `yaml:"subsidiaryFullName"`
	LocationName             string `yaml:"locationName"`
	CreditCardDepositAccount string `yaml:"creditCardDepositAccount"`
}

// ConsolidatedReport aggregates the mapped records for one
// (propertyID, businessDate) pair. Built once per key per run and never
// mutated after assembly.
type ConsolidatedReport struct {
	PropertyID      string
	PropertyName    string
	BusinessDate    time.Time
	TotalFiles      int
	TotalRecords    int
	Records         []MappedRecord
	SuccessfulFiles int
	FailedFiles     int
	Errors          []string
}

// JournalEntryRecord is one row of the JE CSV output.
type JournalEntryRecord struct {
	Entry       string
	Date        string
	SubName     string
	Subsidiary  string
	AcctNumber  string
	InternalID  string
	Location    string
	AccountName string
	Debit       string
	Credit      string
	Comment     string
	PaymentType string
}

// StatisticalJournalEntryRecord is one row of the StatJE CSV output.
type StatisticalJournalEntryRecord struct {
	TransactionID     string
	Date              string
	Subsidiary        string
	UnitOfMeasureType string
	UnitOfMeasure     string
	AcctNumber        string
	InternalID        string
	AccountName       string
	DepartmentID      string
	Location          string
	Amount            string
	LineUnits         string
}

// RunSummary captures the run-level counters reported to the scheduler.
type RunSummary struct {
	FilesFound          int      `json:"filesFound"`
	PropertiesProcessed []string `json:"propertiesProcessed"`
	ProcessingTimeMs    int64    `json:"processingTimeMs"`
	ReportsGenerated    int      `json:"reportsGenerated"`
}

// RunResult is the envelope returned to the scheduling layer. The
// orchestrator guarantees a RunResult is always produced, never a panic or
// an unhandled error.
type RunResult struct {
	RunID          string     `json:"runId"`
	StatusCode     int        `json:"statusCode"`
	Message        string     `json:"message"`
	ProcessedFiles []string   `json:"processedFiles"`
	Timestamp      time.Time  `json:"timestamp"`
	Summary        RunSummary `json:"summary"`
}

// NotifyResult is what the notification collaborator reports back.
type NotifyResult struct {
	Success    bool     `json:"success"`
	MessageID  string   `json:"messageId,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	Error      string   `json:"error,omitempty"`
}
