package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"deqpkit/internal/toolrun"
	"deqpkit/internal/ui"
)

// runBatch runs jobs, rendering progress in the terminal when enabled.
func runBatch(ctx context.Context, title string, batch *toolrun.Batch, jobs []toolrun.Job, totals toolrun.Totals, useTUI bool) (toolrun.Result, error) {
	if !useTUI || len(jobs) == 0 {
		return batch.Run(ctx, jobs, totals)
	}
	events := make(chan toolrun.Event, 256)
	var (
		g   errgroup.Group
		res toolrun.Result
	)
	g.Go(func() error {
		defer close(events)
		b := *batch
		b.Progress = toolrun.ChannelSink{Ch: events}
		var err error
		res, err = b.Run(ctx, jobs, totals)
		return err
	})

	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name
	}
	program := tea.NewProgram(ui.NewProgressModel(title, names, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The view may quit early; keep the batch from blocking on a full channel.
	for range events {
	}
	runErr := g.Wait()
	if uiErr != nil {
		return res, uiErr
	}
	return res, runErr
}

// selectFiles asks which of files to use: a menu on a terminal, a numbered
// prompt otherwise.
func selectFiles(s *session, files []string, useTUI bool) ([]string, error) {
	if !useTUI {
		return ui.Prompt(os.Stdin, s.out, files)
	}
	final, err := tea.NewProgram(ui.NewMenuModel("Select a file to compile", files), tea.WithOutput(os.Stdout)).Run()
	if err != nil {
		return nil, err
	}
	return ui.Selection(final)
}
