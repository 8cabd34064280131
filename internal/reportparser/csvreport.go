package reportparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"wrh/nightaudit/internal/dateutils"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/pipelineerror"
)

// CSVParser handles CSV report exports: one account line per record, in
// code/description/amount column order, with optional property and business
// date header records.
type CSVParser struct {
	clock Clock
}

// NewCSVParser builds a CSVParser.
func NewCSVParser(clock Clock) *CSVParser {
	return &CSVParser{clock: clock}
}

// Parse reads the CSV records. Records with fewer than three fields, or
// whose amount field is not a money value, are treated as header or noise
// records: property/date labels are recognized there, anything else skipped.
func (p *CSVParser) Parse(id models.FileIdentity, content []byte) models.ParsedReport {
	report := models.ParsedReport{SourceFile: id}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("parse CSV report: %v", err))
		return report
	}

	for _, rec := range records {
		joined := strings.Join(rec, " ")
		if report.PropertyName == "" {
			report.PropertyName = extractPropertyName([]string{joined})
		}
		if report.BusinessDate.IsZero() {
			report.BusinessDate = extractBusinessDate([]string{joined})
		}

		if len(rec) < 3 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		desc := strings.TrimSpace(rec[1])
		amountToken := strings.TrimSpace(rec[2])
		if code == "" || !amountTailRe.MatchString(amountToken) {
			continue
		}
		if !codeTokenRe.MatchString(code) && !isMultiWordCode(code) {
			continue
		}

		paymentMethod := DetectCardBrand(desc)
		if len(rec) > 3 && paymentMethod == "" {
			paymentMethod = DetectCardBrand(rec[3])
		}

		report.AccountLines = append(report.AccountLines, models.AccountLine{
			SourceCode:    code,
			Description:   desc,
			Amount:        models.ParseAmount(amountToken),
			PaymentMethod: paymentMethod,
			OriginalLine:  strings.Join(rec, ","),
		})
	}

	if report.PropertyName == "" {
		extractErr := &pipelineerror.DataExtractionError{
			Key:       id.StorageKey,
			FieldName: "propertyName",
			Reason:    "no property display name found in report header",
		}
		report.ParseErrors = append(report.ParseErrors, extractErr.Error())
	}
	if report.BusinessDate.IsZero() {
		report.BusinessDate = dateutils.Yesterday(p.clock())
	}
	return report
}

func isMultiWordCode(code string) bool {
	for _, mwc := range multiWordCodes {
		if code == mwc {
			return true
		}
	}
	return false
}
