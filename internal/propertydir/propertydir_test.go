package propertydir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrh/nightaudit/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already canonical", "THE BARD'S INN HOTEL", "THE BARD'S INN HOTEL"},
		{"mixed case", "The Bard's Inn Hotel", "THE BARD'S INN HOTEL"},
		{"extra whitespace", "  the  bard's   inn hotel ", "THE BARD'S INN HOTEL"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestParseAndLookup(t *testing.T) {
	yaml := `
properties:
  - propertyName: "THE BARD'S INN HOTEL"
    locationId: "24"
    subsidiaryId: "3"
    subsidiaryFullName: "WRH : Bard's Inn LLC"
    locationName: "Bard's Inn"
    creditCardDepositAccount: "10210-114"
  - propertyName: "ASHLAND SUITES"
    locationId: "31"
    subsidiaryId: "5"
    subsidiaryFullName: "WRH : Ashland Suites LLC"
    locationName: "Ashland Suites"
`
	dir, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, 2, dir.Len())

	cfg, found := dir.Lookup("the bard's inn hotel")
	assert.True(t, found)
	assert.Equal(t, "24", cfg.LocationID)
	assert.Equal(t, "3", cfg.SubsidiaryID)
	assert.Equal(t, "WRH : Bard's Inn LLC", cfg.SubsidiaryFullName)
	assert.Equal(t, "10210-114", cfg.CreditCardDepositAccount)
}

func TestLookupUnknownSubstitutesDefault(t *testing.T) {
	dir := New([]models.PropertyConfig{
		{PropertyName: "ASHLAND SUITES", LocationID: "31"},
	})

	cfg, found := dir.Lookup("UNKNOWN PLACE HOTEL")
	assert.False(t, found)
	assert.Equal(t, "UNKNOWN PLACE HOTEL", cfg.PropertyName)
	assert.Equal(t, "0", cfg.LocationID)
	assert.Equal(t, "0", cfg.SubsidiaryID)
	assert.Empty(t, cfg.CreditCardDepositAccount)
}

func TestNewKeepsFirstDuplicate(t *testing.T) {
	dir := New([]models.PropertyConfig{
		{PropertyName: "ASHLAND SUITES", LocationID: "31"},
		{PropertyName: "Ashland Suites", LocationID: "99"},
	})

	assert.Equal(t, 1, dir.Len())
	cfg, found := dir.Lookup("ASHLAND SUITES")
	assert.True(t, found)
	assert.Equal(t, "31", cfg.LocationID)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse([]byte("properties: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("not: valid: yaml: ["))
	assert.Error(t, err)
}
