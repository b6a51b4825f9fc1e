package convert

import (
	"fmt"
	"regexp"
	"strings"

	"phoenix/internal/scenario"
)

var scenarioCodePattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

// GenerateID renders prefix_index with index zero-padded to padding digits.
func GenerateID(prefix string, index, padding int) string {
	return fmt.Sprintf("%s_%0*d", prefix, padding, index)
}

// ScenarioCode builds a code such as FIR_001 from a disaster type.
func ScenarioCode(disasterType string, index int) string {
	typeCode := []rune(strings.ToUpper(disasterType))
	if len(typeCode) > 3 {
		typeCode = typeCode[:3]
	}
	return GenerateID(string(typeCode), index, 3)
}

func EventID(scenarioIndex, eventIndex int) string {
	return scenario.FormatSceneID(scenarioIndex, eventIndex)
}

func ValidScenarioCode(code string) bool {
	return scenarioCodePattern.MatchString(code)
}

func ValidEventID(id string) bool {
	return scenario.IsValidSceneID(id)
}

func ValidFilePath(path string) bool {
	return strings.HasSuffix(path, ".json")
}
