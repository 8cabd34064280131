package reportparser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/pipelineerror"
)

var fixedClock Clock = func() time.Time {
	return time.Date(2025, time.July, 15, 4, 30, 0, 0, time.UTC)
}

const sampleReportText = `THE BARD'S INN HOTEL
Daily Revenue Report
Business Date: 2025-07-14

1001   ROOM REVENUE             1,542.50
2001   CITY TAX                   120.00
3001   VISA SETTLEMENT            300.00
9001   ROOMS SOLD                  42.00
GUEST LEDGER                     8,123.45
`

func sampleIdentity() models.FileIdentity {
	return models.FileIdentity{
		StorageKey:         "daily-files/BARD01/2025-07-14/audit.pdf",
		PropertyIDFromPath: "BARD01",
		DateFolder:         "2025-07-14",
		Filename:           "audit.pdf",
	}
}

func TestPDFParserParse(t *testing.T) {
	parser := NewPDFParserWithExtractor(NewMockTextExtractor(sampleReportText, nil), fixedClock)

	report := parser.Parse(sampleIdentity(), []byte("%PDF-1.4 fake"))

	require.False(t, report.Failed(), "parse errors: %v", report.ParseErrors)
	assert.Equal(t, "THE BARD'S INN HOTEL", report.PropertyName)
	assert.Equal(t, "2025-07-14", report.BusinessDate.Format("2006-01-02"))
	require.Len(t, report.AccountLines, 5)
	assert.Equal(t, "1001", report.AccountLines[0].SourceCode)
	assert.Equal(t, "VISA", report.AccountLines[2].PaymentMethod)
	assert.Equal(t, "GUEST LEDGER", report.AccountLines[4].SourceCode)
}

func TestPDFParserExtractionFailure(t *testing.T) {
	parser := NewPDFParserWithExtractor(NewMockTextExtractor("", fmt.Errorf("pdftotext: damaged file")), fixedClock)

	report := parser.Parse(sampleIdentity(), []byte("%PDF-1.4 fake"))

	require.True(t, report.Failed())
	assert.Contains(t, report.ParseErrors[0], "text extraction")
}

func TestTextParserMissingPropertyNameIsParseError(t *testing.T) {
	text := "Daily Revenue Report\n1001   ROOM REVENUE   100.00\n"
	parser := NewTextParser(fixedClock)

	report := parser.Parse(sampleIdentity(), []byte(text))

	require.True(t, report.Failed())
	assert.Contains(t, report.ParseErrors[0], "propertyName")
	// Lines are still extracted; the report just cannot be attributed.
	assert.Len(t, report.AccountLines, 1)
}

func TestTextParserMissingDateFallsBackToYesterday(t *testing.T) {
	text := "THE BARD'S INN HOTEL\n1001   ROOM REVENUE   100.00\n"
	parser := NewTextParser(fixedClock)

	report := parser.Parse(sampleIdentity(), []byte(text))

	require.False(t, report.Failed())
	assert.Equal(t, "2025-07-14", report.BusinessDate.Format("2006-01-02"))
}

func TestTextParserNoAccountLines(t *testing.T) {
	text := "THE BARD'S INN HOTEL\nBusiness Date: 2025-07-14\nnothing else\n"
	parser := NewTextParser(fixedClock)

	report := parser.Parse(sampleIdentity(), []byte(text))

	assert.False(t, report.Failed())
	assert.Empty(t, report.AccountLines)
}

func TestCSVParserParse(t *testing.T) {
	content := strings.Join([]string{
		"Property: ASHLAND SUITES",
		"Business Date: 2025-07-14",
		"1001,ROOM REVENUE,1542.50",
		"2001,CITY TAX,(120.00)",
		"3001,CARD SETTLEMENT,300.00,VISA",
		"notes,no amount here,n/a",
	}, "\n")

	parser := NewCSVParser(fixedClock)
	report := parser.Parse(sampleIdentity(), []byte(content))

	require.False(t, report.Failed(), "parse errors: %v", report.ParseErrors)
	assert.Equal(t, "ASHLAND SUITES", report.PropertyName)
	assert.Equal(t, "2025-07-14", report.BusinessDate.Format("2006-01-02"))
	require.Len(t, report.AccountLines, 3)
	assert.Equal(t, "-120", report.AccountLines[1].Amount.String())
	assert.Equal(t, "VISA", report.AccountLines[2].PaymentMethod)
}

func TestCSVParserMissingProperty(t *testing.T) {
	content := "1001,ROOM REVENUE,1542.50\n"

	parser := NewCSVParser(fixedClock)
	report := parser.Parse(sampleIdentity(), []byte(content))

	require.True(t, report.Failed())
	// Same typed error as the text-based parsers report for this condition.
	expected := &pipelineerror.DataExtractionError{
		Key:       sampleIdentity().StorageKey,
		FieldName: "propertyName",
		Reason:    "no property display name found in report header",
	}
	require.Len(t, report.ParseErrors, 1)
	assert.Equal(t, expected.Error(), report.ParseErrors[0])
	assert.Equal(t, "2025-07-14", report.BusinessDate.Format("2006-01-02"))
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		filename  string
		expected  FileType
		expectErr bool
	}{
		{"audit.pdf", TypePDF, false},
		{"audit.PDF", TypePDF, false},
		{"audit.txt", TypeText, false},
		{"audit.csv", TypeCSV, false},
		{"mapping.xlsx", TypeMapping, false},
		{"audit.docx", "", true},
		{"noextension", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			got, err := DetectType(tc.filename)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFactoryForFile(t *testing.T) {
	f := NewFactoryWithExtractor(NewMockTextExtractor("", nil), fixedClock)

	p, err := f.ForFile("audit.pdf")
	require.NoError(t, err)
	assert.IsType(t, &PDFParser{}, p)

	p, err = f.ForFile("audit.txt")
	require.NoError(t, err)
	assert.IsType(t, &TextParser{}, p)

	p, err = f.ForFile("audit.csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVParser{}, p)

	_, err = f.ForFile("mapping.xlsx")
	assert.Error(t, err)

	_, err = f.ForFile("audit.docx")
	assert.Error(t, err)
}
