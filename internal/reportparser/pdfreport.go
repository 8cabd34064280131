package reportparser

import (
	"fmt"
	"os"
	"strings"

	"wrh/nightaudit/internal/dateutils"
	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/pipelineerror"
)

// PDFParser extracts account lines from PDF reports. Text extraction goes
// through a TextExtractor so tests need no pdftotext binary.
type PDFParser struct {
	extractor TextExtractor
	clock     Clock
}

// NewPDFParser builds a PDFParser with the production pdftotext extractor.
func NewPDFParser(clock Clock) *PDFParser {
	return &PDFParser{extractor: NewPdftotextExtractor(), clock: clock}
}

// NewPDFParserWithExtractor builds a PDFParser with an injected extractor.
func NewPDFParserWithExtractor(extractor TextExtractor, clock Clock) *PDFParser {
	return &PDFParser{extractor: extractor, clock: clock}
}

// Parse writes the PDF bytes to a temporary file, extracts its text, and
// runs the shared line analysis.
func (p *PDFParser) Parse(id models.FileIdentity, content []byte) models.ParsedReport {
	report := models.ParsedReport{SourceFile: id}

	tempFile, err := os.CreateTemp("", "*.pdf")
	if err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("create temporary PDF file: %v", err))
		return report
	}
	defer func() {
		if err := os.Remove(tempFile.Name()); err != nil {
			log.WithError(err).Warn("Failed to remove temporary file",
				logging.Field{Key: logging.FieldFile, Value: tempFile.Name()})
		}
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("write temporary PDF file: %v", err))
		return report
	}
	if err := tempFile.Close(); err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("close temporary PDF file: %v", err))
		return report
	}

	text, err := p.extractor.ExtractText(tempFile.Name())
	if err != nil {
		perr := &pipelineerror.ParseError{
			Parser: "PDF",
			Key:    id.StorageKey,
			Field:  "text extraction",
			Err:    err,
		}
		report.ParseErrors = append(report.ParseErrors, perr.Error())
		return report
	}

	analyzeText(&report, strings.Split(text, "\n"), p.clock)
	return report
}

// TextParser handles plain-text reports: the content is already text, so it
// goes straight into the shared line analysis.
type TextParser struct {
	clock Clock
}

// NewTextParser builds a TextParser.
func NewTextParser(clock Clock) *TextParser {
	return &TextParser{clock: clock}
}

// Parse runs the shared line analysis over the text content.
func (p *TextParser) Parse(id models.FileIdentity, content []byte) models.ParsedReport {
	report := models.ParsedReport{SourceFile: id}
	analyzeText(&report, strings.Split(string(content), "\n"), p.clock)
	return report
}

// analyzeText fills a ParsedReport from report text: property name and
// business date from the header, account lines from the body. A missing
// property name is a parse error (the report cannot be attributed); a
// missing business date falls back to yesterday relative to run time.
func analyzeText(report *models.ParsedReport, lines []string, clock Clock) {
	report.PropertyName = extractPropertyName(lines)
	if report.PropertyName == "" {
		perr := &pipelineerror.DataExtractionError{
			Key:       report.SourceFile.StorageKey,
			FieldName: "propertyName",
			Reason:    "no property display name found in report header",
		}
		report.ParseErrors = append(report.ParseErrors, perr.Error())
	}

	report.BusinessDate = extractBusinessDate(lines)
	if report.BusinessDate.IsZero() {
		report.BusinessDate = dateutils.Yesterday(clock())
		log.Debug("No business date in report, falling back to yesterday",
			logging.Field{Key: logging.FieldStorageKey, Value: report.SourceFile.StorageKey},
			logging.Field{Key: logging.FieldBusinessDate, Value: dateutils.ToISODate(report.BusinessDate)})
	}

	report.AccountLines = extractAccountLines(lines)
	if len(report.AccountLines) == 0 && !report.Failed() {
		log.Warn("Report parsed but contains no recognizable account lines",
			logging.Field{Key: logging.FieldStorageKey, Value: report.SourceFile.StorageKey})
	}
}
