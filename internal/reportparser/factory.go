package reportparser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType identifies the parser variant selected for a file.
type FileType string

const (
	TypePDF     FileType = "pdf"
	TypeText    FileType = "txt"
	TypeCSV     FileType = "csv"
	TypeMapping FileType = "mapping"
)

// DetectType classifies a filename by extension. Spreadsheets are mapping
// sheets, not reports; they are loaded by the mappingtable package.
func DetectType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return TypePDF, nil
	case ".txt", ".text":
		return TypeText, nil
	case ".csv":
		return TypeCSV, nil
	case ".xlsx", ".xls":
		return TypeMapping, nil
	default:
		return "", fmt.Errorf("unsupported report file type: %s", filepath.Ext(filename))
	}
}

// Factory hands out parser instances per file type. The PDF extractor is
// shared so tests can inject a mock once.
type Factory struct {
	extractor TextExtractor
	clock     Clock
}

// NewFactory builds a Factory with the production extractor.
func NewFactory(clock Clock) *Factory {
	return &Factory{extractor: NewPdftotextExtractor(), clock: clock}
}

// NewFactoryWithExtractor builds a Factory with an injected extractor.
func NewFactoryWithExtractor(extractor TextExtractor, clock Clock) *Factory {
	return &Factory{extractor: extractor, clock: clock}
}

// ForFile returns the parser for the given filename, or an error for
// unsupported and non-report types.
func (f *Factory) ForFile(filename string) (Parser, error) {
	t, err := DetectType(filename)
	if err != nil {
		return nil, err
	}
	switch t {
	case TypePDF:
		return NewPDFParserWithExtractor(f.extractor, f.clock), nil
	case TypeText:
		return NewTextParser(f.clock), nil
	case TypeCSV:
		return NewCSVParser(f.clock), nil
	case TypeMapping:
		return nil, fmt.Errorf("mapping spreadsheets are not reports: %s", filename)
	default:
		return nil, fmt.Errorf("unknown parser type: %s", t)
	}
}
