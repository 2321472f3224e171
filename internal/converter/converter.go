// Package converter turns external skill content — pasted markdown or a
// GitHub repository — into a compliant SKILL.md ready for publishing. It
// validates the YAML frontmatter, repairs what it can (name sanitization,
// description extraction), and reports every check with an overall score.
package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
)

const (
	maxNameLen        = 64
	maxDescriptionLen = 1024

	defaultName        = "untitled-skill"
	defaultDescription = "An AI agent skill"
)

// Check is one validation finding. AutoFixed marks findings the converter
// repaired rather than rejected.
type Check struct {
	Field     string `json:"field"`
	Passed    bool   `json:"passed"`
	Message   string `json:"message"`
	AutoFixed bool   `json:"autoFixed"`
}

// Validation is the full check report. Score weighs required fields
// (frontmatter, name, description, body) at 70% and the rest at 30%.
type Validation struct {
	Score  int     `json:"score"`
	Checks []Check `json:"checks"`
}

// Result is a converted, compliant skill plus its validation report.
type Result struct {
	SkillMd    string           `json:"skillMd"`
	Resources  []store.Resource `json:"resources"`
	Validation Validation       `json:"validation"`
	Source     string           `json:"source"`
	SourceName string           `json:"sourceName,omitempty"`
}

var (
	frontmatterRe  = regexp.MustCompile(`(?s)^---[ \t]*\n(.*?)\n---[ \t]*\n?`)
	headingRe      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	nameRe         = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	invalidNameRe  = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunRe    = regexp.MustCompile(`-+`)
	yamlSpecialRe  = regexp.MustCompile(`[:"'#\[\]{}]`)
	filenameExtRe  = regexp.MustCompile(`(?i)\.(md|txt|yaml|yml)$`)
	requiredFields = map[string]bool{"frontmatter": true, "name": true, "description": true, "body": true}
)

// parseFrontmatter splits content into its YAML frontmatter key/value pairs
// and the markdown body. Content without frontmatter returns an empty map and
// the full content as body.
func parseFrontmatter(content string) (map[string]string, string) {
	frontmatter := make(map[string]string)
	match := frontmatterRe.FindStringSubmatch(content)
	if match == nil {
		return frontmatter, content
	}

	body := content[len(match[0]):]
	for _, line := range strings.Split(match[1], "\n") {
		colon := strings.Index(line, ":")
		if colon <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		frontmatter[key] = value
	}
	return frontmatter, body
}

// SanitizeName forces a name into the allowed form: lowercase alphanumerics
// with single interior hyphens, at most 64 characters.
func SanitizeName(name string) string {
	name = strings.ToLower(name)
	name = invalidNameRe.ReplaceAllString(name, "-")
	name = hyphenRunRe.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// ValidName reports whether name already satisfies the naming rules.
func ValidName(name string) bool {
	return name != "" && len(name) <= maxNameLen && nameRe.MatchString(name) && !strings.Contains(name, "--")
}

// Convert validates content and builds a compliant SKILL.md from it. It never
// fails: malformed input is repaired and the repairs are reported as
// auto-fixed checks.
func Convert(content, source, sourceName string) *Result {
	var checks []Check
	frontmatter, body := parseFrontmatter(content)

	hasFrontmatter := len(frontmatter) > 0
	msg := "YAML frontmatter present"
	if !hasFrontmatter {
		msg = "No YAML frontmatter found, one will be generated"
	}
	checks = append(checks, Check{Field: "frontmatter", Passed: hasFrontmatter, Message: msg, AutoFixed: !hasFrontmatter})

	name := frontmatter["name"]
	hadName := name != ""
	if name == "" && sourceName != "" {
		name = SanitizeName(sourceName)
	}
	if name == "" {
		if heading := headingRe.FindStringSubmatch(body); heading != nil {
			name = SanitizeName(heading[1])
		}
	}
	if name == "" {
		name = defaultName
	}
	nameSanitized := !ValidName(name)
	if nameSanitized {
		name = SanitizeName(name)
		if name == "" {
			name = defaultName
		}
	}
	switch {
	case !hadName:
		checks = append(checks, Check{Field: "name", Passed: false, Message: fmt.Sprintf("Name missing, auto-generated: %q", name), AutoFixed: true})
	case nameSanitized:
		checks = append(checks, Check{Field: "name", Passed: false, Message: fmt.Sprintf("Name sanitized: %q", name), AutoFixed: true})
	default:
		checks = append(checks, Check{Field: "name", Passed: true, Message: fmt.Sprintf("Valid name: %q", name)})
	}

	description := frontmatter["description"]
	hadDescription := description != ""
	if description == "" {
		description = firstParagraph(body)
	}
	wasMultiline := strings.Contains(description, "\n")
	if wasMultiline {
		description = strings.TrimSpace(strings.ReplaceAll(description, "\n", " "))
	}
	wasTruncated := len(description) > maxDescriptionLen
	if wasTruncated {
		description = description[:maxDescriptionLen]
	}
	switch {
	case !hadDescription:
		checks = append(checks, Check{Field: "description", Passed: false, Message: "Description missing, auto-extracted from content", AutoFixed: true})
	case wasTruncated:
		checks = append(checks, Check{Field: "description", Passed: false, Message: fmt.Sprintf("Description truncated to %d characters", maxDescriptionLen), AutoFixed: true})
	case wasMultiline:
		checks = append(checks, Check{Field: "description", Passed: false, Message: "Multi-line description collapsed to a single line", AutoFixed: true})
	default:
		checks = append(checks, Check{Field: "description", Passed: true, Message: "Valid description"})
	}

	hasAllowedTools := frontmatter["allowed-tools"] != ""
	msg = "No allowed-tools field (optional)"
	if hasAllowedTools {
		msg = "Allowed tools specified"
	}
	checks = append(checks, Check{Field: "allowed-tools", Passed: hasAllowedTools, Message: msg})

	hasModel := frontmatter["model"] != ""
	msg = "No model field (optional)"
	if hasModel {
		msg = "Model specified: " + frontmatter["model"]
	}
	checks = append(checks, Check{Field: "model", Passed: hasModel, Message: msg})

	hasBody := strings.TrimSpace(body) != ""
	msg = "No markdown body content"
	if hasBody {
		msg = "Markdown body present"
	}
	checks = append(checks, Check{Field: "body", Passed: hasBody, Message: msg})

	hasHeading := headingRe.MatchString(body)
	msg = "No heading found (recommended)"
	if hasHeading {
		msg = "Has markdown heading"
	}
	checks = append(checks, Check{Field: "heading", Passed: hasHeading, Message: msg})

	skillMd := buildSkillMd(name, description, frontmatter, body, hasBody)

	return &Result{
		SkillMd:    skillMd,
		Resources:  []store.Resource{},
		Validation: Validation{Score: score(checks), Checks: checks},
		Source:     source,
		SourceName: sourceName,
	}
}

// Paste converts pasted or uploaded SKILL.md content. The filename, if given,
// seeds the skill name.
func Paste(content, filename string, resources []store.Resource) (*Result, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("content is required")
	}
	sourceName := filenameExtRe.ReplaceAllString(filename, "")
	result := Convert(content, "paste", sourceName)
	if len(resources) > 0 {
		result.Resources = resources
	}
	return result, nil
}

func firstParagraph(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return defaultDescription
}

func buildSkillMd(name, description string, frontmatter map[string]string, body string, hasBody bool) string {
	lines := []string{"---", "name: " + name}

	desc := description
	if yamlSpecialRe.MatchString(desc) {
		escaped := strings.ReplaceAll(desc, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		desc = `"` + escaped + `"`
	}
	lines = append(lines, "description: "+desc)

	if tools := frontmatter["allowed-tools"]; tools != "" {
		lines = append(lines, "allowed-tools: "+tools)
	}
	if model := frontmatter["model"]; model != "" {
		lines = append(lines, "model: "+model)
	}
	lines = append(lines, "---")

	header := strings.Join(lines, "\n")
	if hasBody {
		return header + "\n\n" + strings.TrimSpace(body) + "\n"
	}
	return fmt.Sprintf("%s\n\n# %s\n\n%s\n", header, name, description)
}

func score(checks []Check) int {
	var requiredTotal, requiredPassed, optionalTotal, optionalPassed float64
	for _, c := range checks {
		if requiredFields[c.Field] {
			requiredTotal++
			if c.Passed {
				requiredPassed++
			}
		} else {
			optionalTotal++
			if c.Passed {
				optionalPassed++
			}
		}
	}
	total := 0.0
	if requiredTotal > 0 {
		total += requiredPassed / requiredTotal * 70
	}
	if optionalTotal > 0 {
		total += optionalPassed / optionalTotal * 30
	}
	return int(total + 0.5)
}
