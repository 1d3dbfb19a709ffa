package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"hookc/internal/driver"
	"hookc/internal/ui"
)

type batchOutcome struct {
	results []driver.FileResult
	err     error
}

// runBatchWithUI drives the batch under a Bubble Tea progress view. The
// driver runs in the background and feeds the view per-unit events.
func runBatchWithUI(ctx context.Context, title string, files []string, dopts driver.Options) ([]driver.FileResult, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		progress := func(r driver.FileResult) {
			status := ui.StatusDone
			if r.Cached {
				status = ui.StatusCached
			}
			if r.Err != nil {
				status = ui.StatusError
			}
			events <- ui.Event{File: r.Path, Status: status}
		}
		results, err := driver.TranspileBatch(ctx, files, dopts, progress)
		outcomeCh <- batchOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
