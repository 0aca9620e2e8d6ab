package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var Templates embed.FS

var (
	studentQuestionRegex    = regexp.MustCompile(`(?i)</?\s*student-question\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const maxQuestionRunes = 2000

// HintVariant selects how much a hint gives away.
type HintVariant string

const (
	// HintSocratic answers with a guiding question only.
	HintSocratic HintVariant = "socratic"
	// HintStandard explains the idea and the first step.
	HintStandard HintVariant = "standard"
	// HintDirect shows a worked example of a similar problem.
	HintDirect HintVariant = "direct"
)

var variants = []HintVariant{HintSocratic, HintStandard, HintDirect}

var (
	loadOnce      sync.Once
	loadErr       error
	hintTemplates map[HintVariant]*template.Template
)

// IsValidVariant checks if a hint variant name is valid.
func IsValidVariant(v string) bool {
	for _, known := range variants {
		if HintVariant(v) == known {
			return true
		}
	}
	return false
}

// HintData holds template data for hint prompts.
type HintData struct {
	Grade      int
	Subject    string
	Topic      string
	TaskName   string
	TaskNumber int
	Level      string
	Language   string
	Question   string
}

// Load parses the hint templates from fsys, which must contain
// templates/hint_<variant>.txt for every variant. Only the first call has an
// effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		hintTemplates = make(map[HintVariant]*template.Template, len(variants))
		for _, v := range variants {
			name := "templates/hint_" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			hintTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildHintPrompt renders the system prompt for variant. The student's
// question is sanitised before it is embedded.
func BuildHintPrompt(variant HintVariant, data HintData) (string, error) {
	if hintTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := hintTemplates[variant]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid hint variant: " + string(variant))
	}
	if data.Language == "" {
		data.Language = "German"
	}
	data.Question = SanitizeQuestion(data.Question)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SanitizeQuestion strips prompt delimiters from a student's question and
// truncates it.
func SanitizeQuestion(q string) string {
	q = studentQuestionRegex.ReplaceAllString(q, "")
	q = systemInstructionsRegex.ReplaceAllString(q, "")
	q = strings.TrimSpace(q)

	if q == "" {
		return "[No question given: the student only asked for help]"
	}
	if utf8.RuneCountInString(q) > maxQuestionRunes {
		runes := []rune(q)
		q = string(runes[:maxQuestionRunes]) + "\n\n[Question truncated due to length]"
	}
	return q
}
