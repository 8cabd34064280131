// Package reportparser extracts accounting facts from the nightly
// property reports. Each supported file type has one parser variant behind a
// shared interface; selection happens in the factory.
package reportparser

import (
	"time"

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

// Parser turns one report file into a ParsedReport. Parse failures are
// recorded on the report's ParseErrors rather than returned: a bad file must
// not fail the run, only exclude itself from mapping.
type Parser interface {
	Parse(id models.FileIdentity, content []byte) models.ParsedReport
}

// Clock supplies the run time used for the business-date fallback.
type Clock func() time.Time
