package assembler

import (
	"strings"

	"wrh/nightaudit/internal/models"
)

// The downstream NetSuite import expects every field double-quoted with
// embedded quotes doubled, which encoding/csv cannot be forced to produce;
// rows are rendered directly.

// JEHeader is the fixed Journal Entry CSV header row.
var JEHeader = []string{
	"Entry", "Date", "Sub Name", "Subsidiary", "acctnumber", "internal id",
	"location", "account name", "Debit", "Credit", "Comment", "Payment Type",
}

// StatJEHeader is the fixed Statistical Journal Entry CSV header row.
var StatJEHeader = []string{
	"Transaction ID", "Date", "Subsidiary", "Unit of Measure Type",
	"Unit of Measure", "acctNumber", "internal id", "account name",
	"department id", "location", "Amount", "Line Units",
}

// EmptyBody is written when a report has no rows, so downstream consumers
// always find an artifact.
const EmptyBody = "No data available\n"

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func renderRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteField(f)
	}
	return strings.Join(quoted, ",")
}

// RenderJournalEntryCSV renders the full JE CSV body. An empty row set
// yields the stable empty body, not a bare header.
func RenderJournalEntryCSV(rows []models.JournalEntryRecord) string {
	if len(rows) == 0 {
		return EmptyBody
	}
	var b strings.Builder
	b.WriteString(renderRow(JEHeader))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(renderRow([]string{
			r.Entry, r.Date, r.SubName, r.Subsidiary, r.AcctNumber, r.InternalID,
			r.Location, r.AccountName, r.Debit, r.Credit, r.Comment, r.PaymentType,
		}))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStatisticalCSV renders the full StatJE CSV body. An empty row set
// yields the stable empty body, not a bare header.
func RenderStatisticalCSV(rows []models.StatisticalJournalEntryRecord) string {
	if len(rows) == 0 {
		return EmptyBody
	}
	var b strings.Builder
	b.WriteString(renderRow(StatJEHeader))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(renderRow([]string{
			r.TransactionID, r.Date, r.Subsidiary, r.UnitOfMeasureType,
			r.UnitOfMeasure, r.AcctNumber, r.InternalID, r.AccountName,
			r.DepartmentID, r.Location, r.Amount, r.LineUnits,
		}))
		b.WriteString("\n")
	}
	return b.String()
}
