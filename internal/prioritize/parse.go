package prioritize

import (
	"encoding/json"
	"strings"
)

// modelTask is one entry in the model's prioritized list.
type modelTask struct {
	Task     string `json:"task"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// modelReply is the object shape the prompt demands.
type modelReply struct {
	PrioritizedTasks []modelTask `json:"prioritized_tasks"`
}

// parseResult is the tagged outcome of parsing a model reply: either a
// parsed task list or the unparsed raw text. Callers branch on Parsed
// instead of relying on error control flow.
type parseResult struct {
	Parsed bool
	Tasks  []modelTask
	Raw    string
}

// parseReply parses the model's textual reply defensively. It strips
// markdown code fences, then tries the expected object shape, a bare
// array, and finally the first JSON document embedded in surrounding
// prose. Anything that still fails yields an Unparsed result.
func parseReply(content string) parseResult {
	unparsed := parseResult{Raw: content}

	cleaned := stripFences(content)
	if cleaned == "" {
		return unparsed
	}

	if tasks, ok := decodeTasks([]byte(cleaned)); ok {
		return parseResult{Parsed: true, Tasks: tasks}
	}

	// The reply may wrap the JSON in prose; locate the first document.
	if doc, ok := firstJSONDocument(cleaned); ok {
		if tasks, ok := decodeTasks(doc); ok {
			return parseResult{Parsed: true, Tasks: tasks}
		}
	}

	return unparsed
}

// decodeTasks tries both accepted shapes: {"prioritized_tasks": [...]}
// and a bare [...] array of task objects.
func decodeTasks(data []byte) ([]modelTask, bool) {
	var reply modelReply
	if err := json.Unmarshal(data, &reply); err == nil && len(reply.PrioritizedTasks) > 0 {
		return reply.PrioritizedTasks, true
	}

	var tasks []modelTask
	if err := json.Unmarshal(data, &tasks); err == nil && len(tasks) > 0 {
		// Guard against arrays of non-task values decoding to zero structs
		for _, t := range tasks {
			if t.Task != "" {
				return tasks, true
			}
		}
	}

	return nil, false
}

// stripFences removes markdown code fences and surrounding whitespace.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// firstJSONDocument extracts the first complete JSON array or object
// from the text. The decoder stops at the end of the first value, so
// trailing prose is ignored.
func firstJSONDocument(s string) ([]byte, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(s[start:]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	return raw, true
}
