package composer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rawSource and rawStep mirror the JSON shape the model is prompted to emit.
type rawSource struct {
	SkillID string `json:"skillId"`
	Reason  string `json:"reason"`
}

type rawStep struct {
	StepNumber  int         `json:"stepNumber"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Sources     []rawSource `json:"sources"`
}

type generatedSkill struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SkillMd     string    `json:"skillMd"`
	Steps       []rawStep `json:"steps"`
}

var (
	stepsArrayRe = regexp.MustCompile(`"steps"\s*:\s*\[`)
	stepStartRe  = regexp.MustCompile(`\{\s*"stepNumber"\s*:\s*(\d+)`)
	skillMdRe    = regexp.MustCompile(`"skillMd"\s*:\s*"`)
	jsonStartRe  = regexp.MustCompile(`\{\s*"name"`)
)

// Chunk batching thresholds. Content is held back until a section break
// appears, enough has accumulated, or enough time has passed, so the client
// sees coherent blocks instead of token dribble.
const (
	chunkMinSection  = 150
	chunkMinTrickle  = 20
	chunkMaxInterval = 400 * time.Millisecond
)

// streamParser incrementally extracts step objects and SKILL.md content from
// the model's partial JSON output.
type streamParser struct {
	content        strings.Builder
	emittedSteps   int
	sentLen        int
	lastSend       time.Time
	skillMdStarted bool

	now func() time.Time
}

func newStreamParser() *streamParser {
	return &streamParser{now: time.Now}
}

func (p *streamParser) append(delta string) {
	p.content.WriteString(delta)
}

// nextSteps returns any newly completed step objects, in order. A step is
// complete once its closing brace has arrived and the object parses.
func (p *streamParser) nextSteps() []rawStep {
	content := p.content.String()
	loc := stepsArrayRe.FindStringIndex(content)
	if loc == nil {
		return nil
	}
	stepsContent := content[loc[1]:]

	var steps []rawStep
	for _, match := range stepStartRe.FindAllStringSubmatchIndex(stepsContent, -1) {
		stepNumber, err := strconv.Atoi(stepsContent[match[2]:match[3]])
		if err != nil || stepNumber <= p.emittedSteps {
			continue
		}

		end := matchBraces(stepsContent, match[0])
		if end == -1 {
			// Incomplete, wait for more content.
			break
		}

		var step rawStep
		if err := json.Unmarshal([]byte(stepsContent[match[0]:end]), &step); err != nil {
			continue
		}
		steps = append(steps, step)
		p.emittedSteps = stepNumber
	}
	return steps
}

// nextSkillMdChunk returns the next batched SKILL.md fragment if the batching
// rules say one is due. started is true the first time any SKILL.md content
// is observed.
func (p *streamParser) nextSkillMdChunk() (chunk, fullSent string, started, ok bool) {
	skillMd := extractSkillMd(p.content.String())
	if skillMd == "" || len(skillMd) <= p.sentLen {
		return "", "", false, false
	}

	if !p.skillMdStarted {
		p.skillMdStarted = true
		started = true
	}

	pending := skillMd[p.sentLen:]
	now := p.now()

	hasCompleteSection := strings.Contains(pending, "\n\n") || strings.Contains(pending, "##")
	hasEnoughContent := len(pending) >= chunkMinSection
	enoughTimePassed := now.Sub(p.lastSend) >= chunkMaxInterval && len(pending) > chunkMinTrickle

	if !hasCompleteSection && !hasEnoughContent && !enoughTimePassed {
		return "", "", started, false
	}

	// Prefer breaking at a section boundary, then a line boundary.
	sendUpTo := len(pending)
	if sectionBreak := strings.LastIndex(pending, "\n\n"); sectionBreak > 50 {
		sendUpTo = sectionBreak + 2
	} else if lineBreak := strings.LastIndex(pending, "\n"); lineBreak > 30 {
		sendUpTo = lineBreak + 1
	}

	chunk = pending[:sendUpTo]
	p.sentLen += sendUpTo
	p.lastSend = now
	return chunk, skillMd[:p.sentLen], started, true
}

// flushSkillMd returns whatever SKILL.md content the batching held back.
func (p *streamParser) flushSkillMd() (chunk, full string, ok bool) {
	skillMd := extractSkillMd(p.content.String())
	if len(skillMd) <= p.sentLen {
		return "", "", false
	}
	chunk = skillMd[p.sentLen:]
	p.sentLen = len(skillMd)
	return chunk, skillMd, true
}

// skillMdInProgress reports whether SKILL.md content has started arriving.
func (p *streamParser) skillMdInProgress() bool {
	return p.skillMdStarted
}

func (p *streamParser) emittedStepCount() int {
	return p.emittedSteps
}

// finalSkill parses the completed response. The model may wrap the JSON in
// prose, so it scans for the object opening with a "name" field and brace-
// matches to its end.
func (p *streamParser) finalSkill() (*generatedSkill, error) {
	content := p.content.String()
	loc := jsonStartRe.FindStringIndex(content)
	if loc == nil {
		return nil, fmt.Errorf("no skill JSON found in model output")
	}

	end := matchBraces(content, loc[0])
	if end == -1 {
		return nil, fmt.Errorf("incomplete skill JSON in model output")
	}

	var skill generatedSkill
	if err := json.Unmarshal([]byte(content[loc[0]:end]), &skill); err != nil {
		return nil, fmt.Errorf("parse skill JSON: %w", err)
	}
	if skill.SkillMd == "" {
		return nil, fmt.Errorf("skill JSON has no skillMd content")
	}
	return &skill, nil
}

// matchBraces returns the index just past the brace that closes the object
// opening at start, or -1 if the object is still incomplete.
func matchBraces(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// extractSkillMd decodes the partial "skillMd" string value from the model's
// in-flight JSON, unescaping as it goes. Returns what has arrived so far,
// whether or not the closing quote has been seen yet.
func extractSkillMd(content string) string {
	loc := skillMdRe.FindStringIndex(content)
	if loc == nil {
		return ""
	}
	remaining := content[loc[1]:]

	var sb strings.Builder
	for i := 0; i < len(remaining); {
		c := remaining[i]
		if c == '\\' {
			if i+1 == len(remaining) {
				// Escape sequence split across deltas; hold the backslash
				// back until its partner arrives.
				break
			}
			switch remaining[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(remaining[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			break
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// extractJSONObject pulls the first brace-balanced JSON object out of text
// that may surround it with prose. Used for the clarify response.
func extractJSONObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return "", false
	}
	end := matchBraces(content, start)
	if end == -1 {
		return "", false
	}
	return content[start:end], true
}
