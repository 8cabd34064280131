// Package mappingtable loads the spreadsheet-driven account-code mapping
// table and resolves source codes to target accounts with
// property-specific-then-global fallback.
package mappingtable

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/propertydir"
)

var log = logging.GetLogger()

// SetLogger allows setting a configured logger.
func SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	log = logger
}

// sheetRow mirrors one row of the mapping spreadsheet's CSV export. The
// column headers are fixed by the sheet owner.
type sheetRow struct {
	RecID        string `csv:"Rec Id"`
	SrcAcctCode  string `csv:"Src Acct Code"`
	SrcAcctDesc  string `csv:"Src Acct Desc"`
	XrefKey      string `csv:"Xref Key"`
	AcctID       string `csv:"Acct Id"`
	PropertyID   string `csv:"Property Id"`
	PropertyName string `csv:"Property Name"`
	AcctCode     string `csv:"Acct Code"`
	AcctSuffix   string `csv:"Acct Suffix"`
	AcctName     string `csv:"Acct Name"`
	Multiplier   string `csv:"Multiplier"`
	Created      string `csv:"Created"`
	Updated      string `csv:"Updated"`
}

// Issue describes one data-quality problem found while loading the sheet.
type Issue struct {
	Row    int
	Reason string
}

// Table is the loaded mapping table.
type Table struct {
	entries []models.MappingEntry
	issues  []Issue
}

// Entries returns the loaded mapping entries in sheet order.
func (t *Table) Entries() []models.MappingEntry {
	return t.entries
}

// Issues returns the data-quality problems recorded at load time.
func (t *Table) Issues() []Issue {
	return t.issues
}

// Load reads a mapping sheet, selecting the loader by file extension:
// .xlsx through excelize, .csv through gocsv.
func Load(filename string, content []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return loadXLSX(content)
	case ".csv":
		return loadCSV(content)
	default:
		return nil, fmt.Errorf("unsupported mapping sheet format: %s", filepath.Ext(filename))
	}
}

func loadCSV(content []byte) (*Table, error) {
	var rows []*sheetRow
	if err := gocsv.UnmarshalBytes(content, &rows); err != nil {
		return nil, fmt.Errorf("parse mapping CSV: %w", err)
	}
	return build(rows)
}

func loadXLSX(content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open mapping spreadsheet: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("Failed to close mapping spreadsheet")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("mapping spreadsheet has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read mapping sheet %q: %w", sheets[0], err)
	}
	if len(cells) < 1 {
		return nil, fmt.Errorf("mapping sheet %q is empty", sheets[0])
	}

	colIndex := make(map[string]int, len(cells[0]))
	for i, h := range cells[0] {
		colIndex[strings.TrimSpace(h)] = i
	}
	pick := func(row []string, col string) string {
		i, ok := colIndex[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	rows := make([]*sheetRow, 0, len(cells)-1)
	for _, row := range cells[1:] {
		rows = append(rows, &sheetRow{
			RecID:        pick(row, "Rec Id"),
			SrcAcctCode:  pick(row, "Src Acct Code"),
			SrcAcctDesc:  pick(row, "Src Acct Desc"),
			XrefKey:      pick(row, "Xref Key"),
			AcctID:       pick(row, "Acct Id"),
			PropertyID:   pick(row, "Property Id"),
			PropertyName: pick(row, "Property Name"),
			AcctCode:     pick(row, "Acct Code"),
			AcctSuffix:   pick(row, "Acct Suffix"),
			AcctName:     pick(row, "Acct Name"),
			Multiplier:   pick(row, "Multiplier"),
		})
	}
	return build(rows)
}

// build converts sheet rows to mapping entries and records data-quality
// issues: duplicate (source, property) pairs and unparseable multipliers.
// Duplicates keep the first row, matching resolver behavior.
func build(rows []*sheetRow) (*Table, error) {
	t := &Table{}
	seen := make(map[string]int)

	for i, row := range rows {
		rowNum := i + 2 // 1-based, after the header row

		sourceCode := strings.TrimSpace(row.SrcAcctCode)
		if sourceCode == "" {
			t.issues = append(t.issues, Issue{Row: rowNum, Reason: "missing source account code"})
			continue
		}

		propertyName := strings.TrimSpace(row.PropertyName)
		if strings.TrimSpace(row.PropertyID) == "0" {
			// Property Id 0 marks a global mapping regardless of the name column.
			propertyName = ""
		}

		multiplier := decimal.NewFromInt(1)
		if m := strings.TrimSpace(row.Multiplier); m != "" {
			parsed, err := decimal.NewFromString(m)
			if err != nil {
				t.issues = append(t.issues, Issue{
					Row:    rowNum,
					Reason: fmt.Sprintf("unparseable multiplier %q for source code %s", m, sourceCode),
				})
				continue
			}
			multiplier = parsed
		}

		targetCode := strings.TrimSpace(row.AcctCode)
		if suffix := strings.TrimSpace(row.AcctSuffix); suffix != "" {
			targetCode = targetCode + "-" + suffix
		}

		dupKey := normalizeCode(sourceCode) + "|" + propertydir.Normalize(propertyName)
		if prevRow, dup := seen[dupKey]; dup {
			t.issues = append(t.issues, Issue{
				Row: rowNum,
				Reason: fmt.Sprintf("duplicate mapping for source code %s (property %q), first defined at row %d",
					sourceCode, propertyName, prevRow),
			})
			log.Warn("Duplicate mapping entry, keeping first",
				logging.Field{Key: logging.FieldSourceCode, Value: sourceCode},
				logging.Field{Key: logging.FieldProperty, Value: propertyName})
			continue
		}
		seen[dupKey] = rowNum

		t.entries = append(t.entries, models.MappingEntry{
			SourceCode:   sourceCode,
			PropertyName: propertyName,
			TargetCode:   targetCode,
			TargetName:   strings.TrimSpace(row.AcctName),
			Multiplier:   multiplier,
		})
	}

	log.Info("Loaded mapping table",
		logging.Field{Key: logging.FieldCount, Value: len(t.entries)})
	return t, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
