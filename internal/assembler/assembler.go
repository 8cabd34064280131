// Package assembler groups mapped records by (property, business date) and
// builds the two NetSuite-importable CSV bodies: Journal Entries and
// Statistical Journal Entries.
package assembler

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wrh/nightaudit/internal/dateutils"
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

// statisticalPrefix marks target codes carrying non-financial metrics.
const statisticalPrefix = "9"

// statisticalKeywords classify records as statistical by description when
// the code prefix does not.
var statisticalKeywords = []string{
	"ROOMS OCCUPIED",
	"ROOMS SOLD",
	"ROOMS AVAILABLE",
	"OCCUPANCY",
	"GUESTS IN HOUSE",
	"NO SHOW ROOMS",
	"COMP ROOMS",
	"OUT OF ORDER",
}

// IsStatistical reports whether a mapped record is a statistical metric
// rather than a financial fact. Target code wins; source code and the
// keyword list are fallbacks.
func IsStatistical(r models.MappedRecord) bool {
	if strings.HasPrefix(r.TargetCode, statisticalPrefix) {
		return true
	}
	if r.TargetCode == "" && strings.HasPrefix(r.SourceCode, statisticalPrefix) {
		return true
	}
	upper := strings.ToUpper(r.SourceDescription)
	for _, kw := range statisticalKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// AccountType is the chart-of-accounts class that decides debit/credit
// orientation.
type AccountType int

const (
	AccountAsset AccountType = iota
	AccountLiability
	AccountRevenue
	AccountExpense
)

// ClassifyAccount derives the account type from the target code's leading
// digit. Unknown prefixes default to expense.
func ClassifyAccount(targetCode string) AccountType {
	if targetCode == "" {
		return AccountExpense
	}
	switch targetCode[0] {
	case '1':
		return AccountAsset
	case '2':
		return AccountLiability
	case '4':
		return AccountRevenue
	case '5', '6', '7':
		return AccountExpense
	default:
		return AccountExpense
	}
}

// DebitCredit computes the mutually exclusive debit/credit pair for an
// amount and account type. Exactly one side is populated, including for
// zero amounts: asset and expense accounts treat non-negative as debit,
// liability and revenue treat non-negative as credit.
func DebitCredit(amount decimal.Decimal, t AccountType) (debit, credit string) {
	abs := models.FormatAmount(amount.Abs())
	positiveIsDebit := t == AccountAsset || t == AccountExpense

	positive := !amount.IsNegative()
	if positive == positiveIsDebit {
		return abs, ""
	}
	return "", abs
}

// EntryID formats the journal entry id: WR{locationId}{YYYYMMDD}.
func EntryID(locationID string, businessDate time.Time) string {
	return "WR" + locationID + dateutils.ToCompactDate(businessDate)
}

// StatTransactionID formats the statistical transaction id:
// {MM/DD/YYYY} WRH.
func StatTransactionID(businessDate time.Time) string {
	return dateutils.ToUSDate(businessDate) + " WRH"
}

// splitTargetCode splits a target account code into prefix and suffix on the
// first '-'. Codes without a dash have an empty suffix.
func splitTargetCode(code string) (prefix, suffix string) {
	if i := strings.Index(code, "-"); i >= 0 {
		return code[:i], code[i+1:]
	}
	return code, ""
}

// GroupKey identifies one consolidated report.
type GroupKey struct {
	PropertyID   string
	BusinessDate string
}

// Group builds one ConsolidatedReport per (propertyID, businessDate) among
// the parsed reports, attaching the mapped records produced for each. The
// returned slice is ordered by key for deterministic output.
func Group(reports []models.ParsedReport, recordsByFile map[string][]models.MappedRecord, propertyNames map[string]string) []models.ConsolidatedReport {
	byKey := make(map[GroupKey]*models.ConsolidatedReport)
	var order []GroupKey

	for _, r := range reports {
		propertyID := r.SourceFile.PropertyIDFromPath
		key := GroupKey{PropertyID: propertyID, BusinessDate: dateutils.ToISODate(r.BusinessDate)}
		cr, ok := byKey[key]
		if !ok {
			cr = &models.ConsolidatedReport{
				PropertyID:   propertyID,
				PropertyName: r.PropertyName,
				BusinessDate: r.BusinessDate,
			}
			if name, found := propertyNames[propertyID]; found && cr.PropertyName == "" {
				cr.PropertyName = name
			}
			byKey[key] = cr
			order = append(order, key)
		}

		cr.TotalFiles++
		if r.Failed() {
			cr.FailedFiles++
			cr.Errors = append(cr.Errors, r.ParseErrors...)
			continue
		}
		cr.SuccessfulFiles++
		records := recordsByFile[r.SourceFile.StorageKey]
		cr.Records = append(cr.Records, records...)
		cr.TotalRecords += len(records)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].PropertyID != order[j].PropertyID {
			return order[i].PropertyID < order[j].PropertyID
		}
		return order[i].BusinessDate < order[j].BusinessDate
	})

	out := make([]models.ConsolidatedReport, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

// BuildJournalEntries builds the JE rows for one consolidated report.
func BuildJournalEntries(cr models.ConsolidatedReport, cfg models.PropertyConfig) []models.JournalEntryRecord {
	entryID := EntryID(cfg.LocationID, cr.BusinessDate)
	date := dateutils.ToUSDate(cr.BusinessDate)

	var rows []models.JournalEntryRecord
	for _, r := range cr.Records {
		if IsStatistical(r) {
			continue
		}
		prefix, suffix := splitTargetCode(r.TargetCode)
		debit, credit := DebitCredit(r.MappedAmount, ClassifyAccount(r.TargetCode))

		rows = append(rows, models.JournalEntryRecord{
			Entry:       entryID,
			Date:        date,
			SubName:     cfg.SubsidiaryFullName,
			Subsidiary:  cfg.SubsidiaryID,
			AcctNumber:  prefix,
			InternalID:  suffix,
			Location:    cfg.LocationID,
			AccountName: r.TargetDescription,
			Debit:       debit,
			Credit:      credit,
			Comment:     r.SourceDescription,
			PaymentType: r.PaymentMethod,
		})
	}
	return rows
}

// BuildStatisticalEntries builds the StatJE rows for one consolidated
// report. Statistical rows carry an absolute amount and no debit/credit
// split.
func BuildStatisticalEntries(cr models.ConsolidatedReport, cfg models.PropertyConfig) []models.StatisticalJournalEntryRecord {
	txID := StatTransactionID(cr.BusinessDate)
	date := dateutils.ToUSDate(cr.BusinessDate)

	var rows []models.StatisticalJournalEntryRecord
	for _, r := range cr.Records {
		if !IsStatistical(r) {
			continue
		}
		amount := r.MappedAmount
		if amount.IsZero() {
			amount = r.SourceAmount
		}
		prefix, suffix := splitTargetCode(r.TargetCode)

		rows = append(rows, models.StatisticalJournalEntryRecord{
			TransactionID:     txID,
			Date:              date,
			Subsidiary:        cfg.SubsidiaryID,
			UnitOfMeasureType: "Quantity",
			UnitOfMeasure:     "Each",
			AcctNumber:        prefix,
			InternalID:        suffix,
			AccountName:       r.TargetDescription,
			DepartmentID:      "",
			Location:          cfg.LocationID,
			Amount:            models.FormatAmount(amount.Abs()),
			LineUnits:         "",
		})
	}
	return rows
}
