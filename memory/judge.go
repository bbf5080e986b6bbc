package memory

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Judge is a model invoked purely to make a structured decision, not to
// produce conversational text. Implementations wrap a single-shot text
// completion call; callers bound it with a context timeout.
type Judge interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ErrNoJSON reports that no JSON object could be extracted from a judge
// reply.
var ErrNoJSON = errors.New("no JSON object in judge reply")

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThink removes <think>...</think> blocks some judge models wrap
// around their answer. An unmatched closing tag drops everything before it.
func StripThink(text string) string {
	if text == "" {
		return text
	}
	text = thinkBlockRe.ReplaceAllString(text, "")
	if idx := strings.LastIndex(text, "</think>"); idx >= 0 {
		text = text[idx+len("</think>"):]
	}
	return strings.TrimSpace(text)
}

// ExtractJSON finds the first balanced JSON object embedded in free text and
// unmarshals it into v. Judge replies are untrusted: wrapper tokens, code
// fences and prose around the object are all tolerated.
func ExtractJSON(text string, v any) error {
	text = StripThink(text)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ErrNoJSON
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return json.Unmarshal([]byte(text[start:i+1]), v)
			}
		}
	}
	return ErrNoJSON
}
