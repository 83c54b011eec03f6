// Package tui implements the interactive terminal agent: a menu-driven
// flow for creating a prioritized task list, reloading the last
// session, and tracking progress, mirroring the web client over the
// same adapters.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/prioritizer/internal/log"
	"github.com/felixgeelhaar/prioritizer/internal/prioritize"
	"github.com/felixgeelhaar/prioritizer/internal/session"
	"github.com/felixgeelhaar/prioritizer/internal/store"
)

// Menu options
const (
	menuNewList  = "Create a new prioritized task list"
	menuLoad     = "Load your last session"
	menuProgress = "Track progress (mark tasks complete)"
	menuExit     = "Exit"
)

// Agent drives the interactive flow over the prioritizer and the store.
type Agent struct {
	prioritizer *prioritize.Prioritizer
	store       *store.Store
	logger      *log.Logger
	styles      Styles
}

// NewAgent creates an interactive agent.
func NewAgent(p *prioritize.Prioritizer, st *store.Store, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Agent{
		prioritizer: p,
		store:       st,
		logger:      logger,
		styles:      DefaultStyles(),
	}
}

// Run shows the menu and dispatches until the user exits.
func (a *Agent) Run(ctx context.Context) error {
	if !IsInteractive() {
		return fmt.Errorf("agent mode requires an interactive terminal")
	}

	fmt.Println(a.styles.renderBanner())

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		choice, err := PromptForSelect("Menu", []string{menuNewList, menuLoad, menuProgress, menuExit})
		if err != nil {
			return err
		}

		switch choice {
		case menuNewList:
			err = a.runNewList(ctx)
		case menuLoad:
			err = a.runLoad()
		case menuProgress:
			err = a.runProgress()
		case menuExit:
			fmt.Println(a.styles.Muted.Render("Goodbye!"))
			return nil
		}

		if err != nil {
			a.logger.LogError(err)
			fmt.Println(a.styles.Error.Render("Error: ") + err.Error())
		}
	}
}

// runNewList collects a goal and tasks, prioritizes, shows, and saves.
func (a *Agent) runNewList(ctx context.Context) error {
	goal, err := PromptForString(Prompt{
		Message:     "What is your single most important goal for today?",
		Placeholder: "Ship the release",
		Required:    true,
	})
	if err != nil {
		return err
	}

	tasks, err := a.collectTasks()
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println(a.styles.Muted.Render("No tasks entered."))
		return nil
	}

	fmt.Println(a.styles.Muted.Render("AI is analyzing your tasks..."))
	prioritized, err := a.prioritizer.Prioritize(ctx, goal, tasks)
	if err != nil {
		return err
	}

	sess, err := a.store.Save(session.Session{Goal: goal, Tasks: prioritized})
	if err != nil {
		return err
	}

	fmt.Println(a.styles.Title.Render("✓ Analysis complete"))
	fmt.Println(a.styles.renderSession(sess))
	fmt.Println(a.styles.Muted.Render("Progress saved to " + a.store.Path()))
	return nil
}

// collectTasks reads tasks one by one until an empty entry or "done".
// Duplicate entries are skipped.
func (a *Agent) collectTasks() ([]string, error) {
	fmt.Println(a.styles.Muted.Render("Enter your tasks one by one. Leave empty or type 'done' to finish."))

	var tasks []string
	seen := map[string]bool{}
	for {
		task, err := PromptForString(Prompt{Message: "Task", Placeholder: "..."})
		if err != nil {
			return nil, err
		}
		task = strings.TrimSpace(task)
		if task == "" || strings.EqualFold(task, "done") {
			return tasks, nil
		}
		key := strings.ToLower(task)
		if seen[key] {
			continue
		}
		seen[key] = true
		tasks = append(tasks, task)
	}
}

// runLoad shows the last saved session.
func (a *Agent) runLoad() error {
	sess, err := a.store.Load()
	if err != nil {
		return err
	}
	if sess.IsEmpty() {
		fmt.Println(a.styles.Muted.Render("No previous session found."))
		return nil
	}

	fmt.Println(a.styles.Title.Render("✓ Loaded last session"))
	fmt.Println(a.styles.renderSession(sess))
	return nil
}

// runProgress loops over the saved session, toggling completion flags.
func (a *Agent) runProgress() error {
	sess, err := a.store.Load()
	if err != nil {
		return err
	}
	if len(sess.Tasks) == 0 {
		fmt.Println(a.styles.Muted.Render("No session found to track progress."))
		return nil
	}

	for {
		fmt.Println(a.styles.renderSession(sess))

		choice, err := PromptForString(Prompt{
			Message:     "Enter task number to toggle complete, or leave empty to stop",
			Placeholder: "1",
		})
		if err != nil {
			return err
		}
		choice = strings.TrimSpace(choice)
		if choice == "" {
			return nil
		}

		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(sess.Tasks) {
			fmt.Println(a.styles.Error.Render("Invalid choice."))
			continue
		}

		idx := n - 1
		sess, err = a.store.UpdateTask(idx, !sess.Tasks[idx].Completed)
		if err != nil {
			return err
		}
	}
}
