package dedup

import (
	"wrh/nightaudit/internal/dateutils"
	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/propertydir"
)

// Phase2 is the authoritative duplicate pass: among successfully parsed
// reports, exactly one survives per (propertyName, businessDate) extracted
// from content; the first encountered wins. Reports that failed parsing have
// no usable identity and pass through unchanged.
func Phase2(reports []models.ParsedReport) []models.ParsedReport {
	seen := make(map[string]string)
	var out []models.ParsedReport

	for _, r := range reports {
		if r.Failed() {
			out = append(out, r)
			continue
		}

		key := propertydir.Normalize(r.PropertyName) + "|" + dateutils.ToISODate(r.BusinessDate)
		if keptKey, dup := seen[key]; dup {
			log.Info("Post-parse duplicate skipped",
				logging.Field{Key: logging.FieldProperty, Value: r.PropertyName},
				logging.Field{Key: logging.FieldBusinessDate, Value: dateutils.ToISODate(r.BusinessDate)},
				logging.Field{Key: logging.FieldKeptKey, Value: keptKey},
				logging.Field{Key: logging.FieldSkippedKey, Value: r.SourceFile.StorageKey})
			continue
		}
		seen[key] = r.SourceFile.StorageKey
		out = append(out, r)
	}
	return out
}
