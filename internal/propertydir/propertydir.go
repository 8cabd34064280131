// Package propertydir holds the static table mapping canonical property
// names to their accounting identifiers. The table is loaded once into an
// immutable keyed lookup; lookups normalize with trim + uppercase.
package propertydir

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

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

// Directory is the immutable property lookup.
type Directory struct {
	byName map[string]models.PropertyConfig
}

type directoryFile struct {
	Properties []models.PropertyConfig `yaml:"properties"`
}

// Normalize canonicalizes a property name for lookup: trim + uppercase with
// internal whitespace collapsed to single spaces.
func Normalize(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// New builds a Directory from a list of property configs.
func New(configs []models.PropertyConfig) *Directory {
	byName := make(map[string]models.PropertyConfig, len(configs))
	for _, c := range configs {
		key := Normalize(c.PropertyName)
		if _, exists := byName[key]; exists {
			log.Warn("Duplicate property entry, keeping first",
				logging.Field{Key: logging.FieldProperty, Value: c.PropertyName})
			continue
		}
		byName[key] = c
	}
	return &Directory{byName: byName}
}

// Load reads a YAML property file and builds the Directory.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read property file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse builds the Directory from YAML bytes.
func Parse(data []byte) (*Directory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse property file: %w", err)
	}
	if len(f.Properties) == 0 {
		return nil, fmt.Errorf("property file contains no properties")
	}
	return New(f.Properties), nil
}

// Lookup returns the config for the named property. When the property has no
// configured entry a synthetic default is substituted and the data gap is
// logged; the second return reports whether a configured entry was found.
func (d *Directory) Lookup(propertyName string) (models.PropertyConfig, bool) {
	if c, ok := d.byName[Normalize(propertyName)]; ok {
		return c, true
	}

	log.Warn("Property has no configured entry, substituting default",
		logging.Field{Key: logging.FieldProperty, Value: propertyName})
	return models.PropertyConfig{
		PropertyName:             propertyName,
		LocationID:               "0",
		SubsidiaryID:             "0",
		SubsidiaryFullName:       propertyName,
		LocationName:             propertyName,
		CreditCardDepositAccount: "",
	}, false
}

// Len returns the number of configured properties.
func (d *Directory) Len() int {
	return len(d.byName)
}
