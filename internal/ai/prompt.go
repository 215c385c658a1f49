package ai

import (
	"strconv"
	"strings"

	_ "embed"

	"github.com/brightisle/cv-screener/internal/failure"
)

const (
	MinStrength = 1
	MaxStrength = 5
)

//go:embed prompt.md
var promptTemplate string

// BuildPrompt renders the evaluation prompt. resume and coverLetter must
// already be sanitized; the absent-document sentinel is passed through as is.
func BuildPrompt(criteria string, strength int, resume, coverLetter string) (string, error) {
	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		return "", failure.Errorf(failure.NoCriteria, "build prompt", "criteria must not be empty")
	}
	if err := ValidateStrength(strength); err != nil {
		return "", err
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "User Criteria: {{CRITERIA}}\nFilter Strength: {{STRENGTH}}\n\nResume:\n{{RESUME}}\n\nCoverletter:\n{{COVER_LETTER}}\n"
	}

	// A single pass keeps placeholders that appear inside caller text literal.
	r := strings.NewReplacer(
		"{{CRITERIA}}", criteria,
		"{{STRENGTH}}", strconv.Itoa(strength),
		"{{RESUME}}", resume,
		"{{COVER_LETTER}}", coverLetter,
	)
	return r.Replace(template), nil
}

// ValidateStrength checks that strength is within the rubric.
func ValidateStrength(strength int) error {
	if strength < MinStrength || strength > MaxStrength {
		return failure.Errorf(failure.InvalidStrength, "build prompt", "strength %d is out of range %d..%d", strength, MinStrength, MaxStrength)
	}
	return nil
}
