package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OverrideRule pins the image for a site whose generic markup misleads the
// chain. Host matches the page host or any subdomain of it.
type OverrideRule struct {
	Host     string `yaml:"host"`
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
}

// Attribute returns the attribute to read, "src" when unset.
func (r OverrideRule) Attribute() string {
	if r.Attr == "" {
		return "src"
	}
	return r.Attr
}

type overridesFile struct {
	Overrides []OverrideRule `yaml:"overrides"`
}

// DefaultOverrides is the built-in table used when no overrides file is given.
func DefaultOverrides() []OverrideRule {
	return []OverrideRule{
		{Host: "axisbank.com", Selector: `img[src*="/content/dam/"]`, Attr: "src"},
		{Host: "hdfcbank.com", Selector: `img[src*="/content/bbp/repositories/"]`, Attr: "src"},
		{Host: "sbicard.com", Selector: `img[src*="/sbi-card-en/assets/"]`, Attr: "src"},
	}
}

// LoadOverrides reads an override table from a YAML file of the form:
//
//	overrides:
//	  - host: axisbank.com
//	    selector: img[src*="/content/dam/"]
//	    attr: src
func LoadOverrides(path string) ([]OverrideRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	if f.Overrides == nil {
		f.Overrides = []OverrideRule{}
	}
	return f.Overrides, nil
}
