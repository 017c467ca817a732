package dispatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Tool-action models append a free-form justification after the outcome
// lines; the marker and everything after it is presentation noise.
var rationalePattern = regexp.MustCompile(`\s*(?:行动)?(?:理由|reason|Reason)[:：][\s\S]*`)

// StripRationale removes a trailing rationale section from a result line.
func StripRationale(text string) string {
	return strings.TrimSpace(rationalePattern.ReplaceAllString(text, ""))
}

// CallSummary renders a one-line description of a tool invocation. Unknown
// tools fall back to a generic label so new server-side tools degrade
// gracefully instead of disappearing from the log.
func CallSummary(tool string, params map[string]any) string {
	switch tool {
	case "perform_attack":
		return fmt.Sprintf("%s → %s using %s",
			paramString(params, "attacker"),
			paramString(params, "defender"),
			paramString(params, "weapon"))
	case "advance_position":
		return fmt.Sprintf("%s advances toward %s (%s steps)",
			paramString(params, "name"),
			paramString(params, "target"),
			paramNumber(params, "steps"))
	case "adjust_relation":
		return fmt.Sprintf("relation %s ↔ %s adjusted by %s",
			paramString(params, "a"),
			paramString(params, "b"),
			paramNumber(params, "value"))
	case "transfer_item":
		return fmt.Sprintf("%s receives %s× %s",
			paramString(params, "target"),
			paramNumber(params, "n"),
			paramString(params, "item"))
	default:
		return fmt.Sprintf("tool %s invoked", tool)
	}
}

// ResultSummary joins a tool result's output lines into one display line,
// with any trailing rationale stripped.
func ResultSummary(tool string, lines []string) string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = StripRationale(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return strings.Join(cleaned, "; ")
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "?"
}

func paramNumber(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case string:
		if v != "" {
			return v
		}
	}
	return "?"
}
