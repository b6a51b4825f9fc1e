package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rules describes the scene fields the validator checks beyond the
// structural ones: length limits and the allowed vocabularies.
type Rules struct {
	Version int         `yaml:"version"`
	Fields  []FieldRule `yaml:"fields"`

	index map[string]*FieldRule
}

type FieldRule struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Values    []string `yaml:"values"`
	Default   string   `yaml:"default"`
	MaxLength int      `yaml:"max_length"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() *Rules {
	rules, err := parseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("built-in rules: %v", err))
	}
	return rules
}

func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	rules, err := parseRules(data)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return rules, nil
}

func parseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	if err := validateRules(&rules); err != nil {
		return nil, err
	}

	rules.index = make(map[string]*FieldRule)
	for i := range rules.Fields {
		field := &rules.Fields[i]
		rules.index[strings.ToLower(field.Name)] = field
	}
	return &rules, nil
}

func validateRules(r *Rules) error {
	if r.Version != 1 {
		return fmt.Errorf("unsupported version: %d", r.Version)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("at least one field rule is required")
	}

	names := make(map[string]struct{})
	for i, field := range r.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("field rule %d name is required", i)
		}
		key := strings.ToLower(field.Name)
		if _, exists := names[key]; exists {
			return fmt.Errorf("duplicate field rule: %s", field.Name)
		}
		names[key] = struct{}{}

		switch strings.ToLower(field.Type) {
		case "string":
			if field.MaxLength < 0 {
				return fmt.Errorf("field %s max_length must not be negative", field.Name)
			}
		case "enum":
			if len(field.Values) == 0 {
				return fmt.Errorf("field %s enum has no values", field.Name)
			}
			if field.Default != "" && !contains(field.Values, field.Default) {
				return fmt.Errorf("field %s default %q is not an allowed value", field.Name, field.Default)
			}
		default:
			return fmt.Errorf("field %s has unknown type %q", field.Name, field.Type)
		}
	}
	return nil
}

func (r *Rules) Field(name string) (*FieldRule, bool) {
	if r == nil {
		return nil, false
	}
	field, ok := r.index[strings.ToLower(name)]
	return field, ok
}

// Allowed reports whether value is acceptable for an enum field. Unknown
// fields and empty values are always allowed.
func (r *Rules) Allowed(name, value string) bool {
	field, ok := r.Field(name)
	if !ok || value == "" || !strings.EqualFold(field.Type, "enum") {
		return true
	}
	return contains(field.Values, value)
}

func (r *Rules) MaxLength(name string) int {
	field, ok := r.Field(name)
	if !ok {
		return 0
	}
	return field.MaxLength
}

func (r *Rules) Default(name string) string {
	field, ok := r.Field(name)
	if !ok {
		return ""
	}
	return field.Default
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
