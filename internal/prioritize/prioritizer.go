// Package prioritize is the AI client adapter: it turns a goal and a
// task list into a prompt, calls the provider, and merges the model's
// reply back onto the caller's tasks.
//
// The returned list is always a permutation of the input. An
// unparseable reply degrades to the original order with no priorities
// rather than failing the request.
package prioritize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/prioritizer/internal/log"
	"github.com/felixgeelhaar/prioritizer/internal/provider"
	"github.com/felixgeelhaar/prioritizer/internal/session"
)

const systemPrompt = `You are an expert productivity coach. Your job is to prioritize a list of tasks
based on a user's primary goal. Analyze the tasks and the goal, then
return a JSON object. This object should contain a single key "prioritized_tasks",
which is an array of objects. Each object must have three string fields:
"task", "priority" (High, Medium, or Low), and "reason".
Your response must ONLY be the valid JSON object.`

// Prioritizer orchestrates prompt construction, the provider call, and
// the merge back onto the input tasks.
type Prioritizer struct {
	client provider.Client
	logger *log.Logger
}

// New creates a Prioritizer using the given provider client.
func New(client provider.Client, logger *log.Logger) *Prioritizer {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Prioritizer{client: client, logger: logger}
}

// Prioritize asks the model to order tasks by priority for the goal.
// It returns the input tasks annotated and reordered, or the original
// order unannotated when the reply cannot be parsed. Provider failures
// propagate as coded upstream errors.
func (p *Prioritizer) Prioritize(ctx context.Context, goal string, tasks []string) ([]session.Task, error) {
	resp, err := p.client.Generate(ctx, &provider.Request{
		SystemPrompt: systemPrompt,
		Prompt:       buildUserPrompt(goal, tasks),
		Temperature:  0.2,
		JSONOnly:     true,
	})
	if err != nil {
		return nil, err
	}

	result := parseReply(resp.Content)
	if !result.Parsed {
		// Degraded but successful: hand back the caller's order untouched.
		p.logger.Warn("AI reply unparseable, falling back to input order",
			"provider", p.client.Name(),
			"reply_bytes", len(result.Raw))
		return passthrough(tasks), nil
	}

	p.logger.Debug("AI reply parsed",
		"provider", p.client.Name(),
		"model", resp.Model,
		"tokens_used", resp.TokensUsed,
		"latency", resp.Latency,
		"task_count", len(result.Tasks))

	return merge(tasks, result.Tasks), nil
}

// buildUserPrompt embeds the goal and a bulleted task list.
func buildUserPrompt(goal string, tasks []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "My main goal today is: %q\n\nHere are my tasks:\n", goal)
	for _, task := range tasks {
		fmt.Fprintf(&b, "- %s\n", task)
	}
	return b.String()
}

// passthrough wraps the input tasks unannotated in their original order.
func passthrough(tasks []string) []session.Task {
	out := make([]session.Task, len(tasks))
	for i, t := range tasks {
		out[i] = session.Task{Text: t}
	}
	return out
}

// merge applies the model's labels to the caller's tasks and reorders
// by descending priority. The result is a permutation of the input:
//   - model entries are matched to input tasks case-insensitively on
//     trimmed text; entries matching nothing are discarded
//   - input tasks the model omitted keep their original relative order
//     at the end, unannotated
//   - ties sort by original input position (stable)
func merge(input []string, model []modelTask) []session.Task {
	// Input index lookup; duplicate texts match first-unused occurrence.
	unused := make(map[string][]int, len(input))
	for i, text := range input {
		key := normalize(text)
		unused[key] = append(unused[key], i)
	}

	type annotated struct {
		task    session.Task
		origIdx int
	}

	matched := make([]annotated, 0, len(input))
	for _, mt := range model {
		key := normalize(mt.Task)
		idxs := unused[key]
		if len(idxs) == 0 {
			continue
		}
		origIdx := idxs[0]
		unused[key] = idxs[1:]

		prio, _ := session.ParsePriority(mt.Priority)
		matched = append(matched, annotated{
			task: session.Task{
				Text:     input[origIdx], // keep the caller's exact text
				Reason:   strings.TrimSpace(mt.Reason),
				Priority: prio,
			},
			origIdx: origIdx,
		})
	}

	// Sort by priority rank, breaking ties by original input position.
	sort.SliceStable(matched, func(i, j int) bool {
		ri, rj := matched[i].task.Priority.Rank(), matched[j].task.Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return matched[i].origIdx < matched[j].origIdx
	})

	out := make([]session.Task, 0, len(input))
	for _, a := range matched {
		out = append(out, a.task)
	}

	// Tasks the model dropped come last, original order preserved.
	leftovers := make([]int, 0)
	for _, idxs := range unused {
		leftovers = append(leftovers, idxs...)
	}
	sort.Ints(leftovers)
	for _, i := range leftovers {
		out = append(out, session.Task{Text: input[i]})
	}

	return out
}

// normalize produces the matching key for a task text.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
