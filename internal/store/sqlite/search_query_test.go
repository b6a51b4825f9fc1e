package sqlite

import (
	"testing"
)

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple term", input: "smoke", expected: "smoke"},
		{name: "multiple terms", input: "fire exit", expected: "fire AND exit"},
		{name: "explicit AND", input: "smoke AND alarm", expected: "smoke AND alarm"},
		{name: "explicit OR", input: "smoke OR alarm", expected: "smoke OR alarm"},
		{name: "lowercase or is a word", input: "smoke or alarm", expected: "smoke AND or AND alarm"},
		{name: "negation", input: "smoke -fire", expected: "smoke NOT fire"},
		{name: "NOT operator", input: "smoke NOT fire", expected: "smoke NOT fire"},
		{name: "phrase", input: `"fire exit"`, expected: `"fire exit"`},
		{name: "phrase with other term", input: `"fire exit" stairs`, expected: `"fire exit" AND stairs`},
		{name: "negated phrase", input: `stairs -"fire exit"`, expected: `stairs NOT "fire exit"`},
		{name: "prefix search", input: "smoke*", expected: "smoke*"},
		{
			name:     "complex query",
			input:    `"fire exit" -fire stairs OR elevator`,
			expected: `"fire exit" NOT fire AND stairs OR elevator`,
		},
		{name: "korean terms", input: "화재 대피", expected: "화재 AND 대피"},
		{name: "hyphenated word", input: "119-call", expected: `"119-call"`},
		{name: "scene id", input: "#1-1", expected: `"#1-1"`},
		{name: "embedded quote", input: `it"s`, expected: `it AND "s"`},
		{name: "leading negation dropped", input: "-smoke alarm", expected: "alarm"},
		{name: "dangling operators dropped", input: "OR smoke AND", expected: "smoke"},
		{name: "lone dash", input: "smoke -", expected: "smoke"},
		{name: "unclosed phrase", input: `"fire exit`, expected: `"fire exit"`},
		{name: "leading OR dropped", input: "OR smoke alarm", expected: "smoke AND alarm"},
		{name: "negated keyword quoted", input: "smoke -NOT", expected: `smoke NOT "NOT"`},
		{name: "only operators", input: "AND OR", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matchExpression(tt.input)
			if result != tt.expected {
				t.Errorf("matchExpression(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
