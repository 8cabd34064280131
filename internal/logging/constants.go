package logging

// Standardized field names for structured logging. Keeping these consistent
// across the pipeline makes logs easy to filter by run, property or file.
const (
	FieldRunID        = "run_id"
	FieldStorageKey   = "storage_key"
	FieldFile         = "file"
	FieldProperty     = "property"
	FieldPropertyID   = "property_id"
	FieldBusinessDate = "business_date"
	FieldSourceCode   = "source_code"
	FieldTargetCode   = "target_code"
	FieldDescription  = "description"
	FieldAmount       = "amount"
	FieldCount        = "count"
	FieldStep         = "step"
	FieldMode         = "mode"
	FieldAttempt      = "attempt"
	FieldDuration     = "duration_ms"
	FieldKeptKey      = "kept_key"
	FieldSkippedKey   = "skipped_key"
	FieldBrand        = "brand"
	FieldOutputKey    = "output_key"
)
