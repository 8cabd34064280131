package mappingtable

import (
	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/propertydir"
)

// Resolve looks up a source code for the given property. A property-specific
// entry always wins over a global one; when neither exists the line is
// dropped by the caller, so the second return is false.
func (t *Table) Resolve(sourceCode, propertyName string) (models.MappingEntry, bool) {
	code := normalizeCode(sourceCode)
	prop := propertydir.Normalize(propertyName)

	for _, e := range t.entries {
		if !e.Global() && normalizeCode(e.SourceCode) == code && propertydir.Normalize(e.PropertyName) == prop {
			return e, true
		}
	}
	for _, e := range t.entries {
		if e.Global() && normalizeCode(e.SourceCode) == code {
			return e, true
		}
	}
	return models.MappingEntry{}, false
}

// MapLines resolves every account line of a parsed report. Unmapped lines
// are dropped per business rule: they must not appear in the accounting
// export. Each drop is logged at warning level with the code and description
// so the mapping sheet can be corrected.
func (t *Table) MapLines(lines []models.AccountLine, propertyName, propertyID string) []models.MappedRecord {
	records := make([]models.MappedRecord, 0, len(lines))
	for _, line := range lines {
		entry, ok := t.Resolve(line.SourceCode, propertyName)
		if !ok {
			log.Warn("No mapping for source code, dropping line",
				logging.Field{Key: logging.FieldSourceCode, Value: line.SourceCode},
				logging.Field{Key: logging.FieldDescription, Value: line.Description},
				logging.Field{Key: logging.FieldProperty, Value: propertyName})
			continue
		}
		records = append(records, models.MappedRecord{
			SourceCode:        line.SourceCode,
			SourceDescription: line.Description,
			SourceAmount:      line.Amount,
			TargetCode:        entry.TargetCode,
			TargetDescription: entry.TargetName,
			MappedAmount:      line.Amount.Mul(entry.Multiplier),
			PaymentMethod:     line.PaymentMethod,
			PropertyID:        propertyID,
		})
	}
	return records
}
