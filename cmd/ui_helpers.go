// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"sprocket/cli/internal/reply"
	"sprocket/cli/internal/sqlexec"
	"sprocket/cli/internal/terminal"
	"sprocket/cli/internal/tree"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// startInlineSpinner animates frames followed by text on a single line of w until the
// returned function is called. The line is cleared when the spinner stops.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	cursor.Hide()
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cursor.Show()
		})
	}
}

// withSpinner runs fn behind a spinner when stderr is a terminal.
func withSpinner(text string, fn func() error) error {
	if verbose || !terminal.IsInteractive() {
		return fn()
	}
	stop := startInlineSpinner(os.Stderr, text, spinnerFrames, 100*time.Millisecond)
	defer stop()
	return fn()
}

// renderRecords prints rows as a table; an empty result prints a short note.
func renderRecords(recs []sqlexec.Record, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	if len(recs) == 0 {
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint("(no rows)"))
		return nil
	}
	data := pterm.TableData{columns}
	for _, r := range recs {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r.String(c)
		}
		data = append(data, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// renderReplyError prints a non-success reply status and its messages.
func renderReplyError(re *reply.Error) {
	title := fmt.Sprintf("%s (%s)", re.Status.Code, re.Status.Outcome)
	style := pterm.NewStyle(pterm.FgRed, pterm.Bold)
	if re.Status.Outcome == reply.Warning || re.Status.Outcome == reply.NotFound {
		style = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	}
	pterm.Println(style.Sprint(title))
	if len(re.Messages) == 0 {
		return
	}
	data := pterm.TableData{{"Severity", "Code", "Message"}}
	for _, m := range re.Messages {
		data = append(data, []string{string(m.Severity), m.Code, m.Text})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// renderForest prints roots as a pterm tree.
func renderForest[K comparable](roots []*tree.Node[K, string]) error {
	var list pterm.LeveledList
	err := tree.Walk(roots, func(n *tree.Node[K, string], depth int) error {
		list = append(list, pterm.LeveledListItem{Level: depth, Text: n.Value})
		return nil
	})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint("(empty forest)"))
		return nil
	}
	return pterm.DefaultTree.WithRoot(putils.TreeFromLeveledList(list)).Render()
}
