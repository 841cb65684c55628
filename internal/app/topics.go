package app

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// "1. '배송이 빠르다' (12개)"
var topicLine = regexp.MustCompile(`^\d+\.\s*['"]?(.+?)['"]?\s*\((\d+)\s*개\)`)

// ParseTopics reads a summarizer response as a JSON array of
// {content, count}. Anything else goes through the numbered-line form;
// lines that don't match are kept with a count of 0.
func ParseTopics(text string) []Topic {
	if ts, ok := parseTopicJSON(text); ok {
		return ts
	}
	var out []Topic
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := topicLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[2])
			out = append(out, Topic{Content: m[1], Count: n})
			continue
		}
		out = append(out, Topic{Content: line, Count: 0})
	}
	return out
}

func parseTopicJSON(text string) ([]Topic, bool) {
	start, end := strings.Index(text, "["), strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, false
	}
	var ts []Topic
	if err := json.Unmarshal([]byte(text[start:end+1]), &ts); err != nil {
		return nil, false
	}
	return ts, true
}

// formatTopics renders topics in the numbered-line form.
func formatTopics(ts []Topic) string {
	var b strings.Builder
	for i, t := range ts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i+1) + ". '" + t.Content + "' (" + strconv.Itoa(t.Count) + "개)")
	}
	return b.String()
}
