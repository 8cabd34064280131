package reportparser

import (
	"fmt"
	"os"
	"os/exec"
)

// TextExtractor extracts plain text from a binary report file. The
// production implementation shells out to pdftotext; tests inject a mock.
type TextExtractor interface {
	// ExtractText extracts text content from the file at the given path.
	ExtractText(path string) (string, error)
}

// PdftotextExtractor implements TextExtractor using the pdftotext command
// with layout preservation, which keeps the report's column alignment.
type PdftotextExtractor struct{}

// NewPdftotextExtractor creates a new PdftotextExtractor instance.
func NewPdftotextExtractor() *PdftotextExtractor {
	return &PdftotextExtractor{}
}

// ExtractText extracts text from a PDF file using the pdftotext command.
func (e *PdftotextExtractor) ExtractText(path string) (string, error) {
	tempFile := path + ".txt"

	cmd := exec.Command("pdftotext", "-layout", path, tempFile)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running pdftotext: %w", err)
	}

	output, err := os.ReadFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("error reading extracted text: %w", err)
	}

	_ = os.Remove(tempFile)

	return string(output), nil
}

// MockTextExtractor implements TextExtractor for testing. It returns
// predefined text or an error instead of invoking pdftotext.
type MockTextExtractor struct {
	MockText string
	MockErr  error
}

// NewMockTextExtractor creates a MockTextExtractor with the given data.
func NewMockTextExtractor(mockText string, mockErr error) *MockTextExtractor {
	return &MockTextExtractor{MockText: mockText, MockErr: mockErr}
}

// ExtractText returns the predefined mock text or error.
func (e *MockTextExtractor) ExtractText(path string) (string, error) {
	if e.MockErr != nil {
		return "", e.MockErr
	}
	return e.MockText, nil
}
