// Package pipelineerror defines the typed errors used across the pipeline.
package pipelineerror

import "fmt"

// ParseError represents an error while extracting data from a report file.
type ParseError struct {
	Parser string
	Key    string
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s in '%s': %v", e.Parser, e.Field, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents an input file that does not conform to the
// expected format for its parser.
type InvalidFormatError struct {
	Key            string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in '%s': %s. Expected: %s", e.Key, e.Msg, e.ExpectedFormat)
}

// DataExtractionError represents required data that could not be extracted
// from a file whose format is otherwise valid.
type DataExtractionError struct {
	Key       string
	FieldName string
	Reason    string
}

func (e *DataExtractionError) Error() string {
	return fmt.Sprintf("data extraction failed in '%s' for field '%s': %s", e.Key, e.FieldName, e.Reason)
}

// ConfigError represents missing or invalid configuration detected at startup
// or at the orchestrator boundary.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for '%s': %s", e.Setting, e.Reason)
}

// StorageError wraps a blob-store failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for '%s': %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
