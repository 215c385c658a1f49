// Package review is the interactive result browser shown after a batch.
package review

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/brightisle/cv-screener/internal/ranking"
)

const (
	ActionExport   = "Export results"
	ActionDumpJSON = "Dump results to JSON file"
	ActionExit     = "Exit"
)

// Selector shows label with items and returns the chosen index.
type Selector func(label string, items []string) (int, error)

// PromptSelector is the terminal Selector backed by promptui.
func PromptSelector(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  min(len(items), 15),
	}
	index, _, err := prompt.Run()
	return index, err
}

// Options wire the browser to its output and actions.
type Options struct {
	Out    io.Writer
	Select Selector
	// Export writes the ranking table. The action is hidden when nil.
	Export func() (string, error)
	// DumpJSON writes the results to a JSON file. The action is hidden when nil.
	DumpJSON func() (string, error)
}

// Preview is the one-line list entry for a result.
func Preview(r ranking.Result) string {
	return fmt.Sprintf("%s | %d | %s", r.Applicant, r.Score, r.Approval)
}

// Details is the full view of a result.
func Details(r ranking.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applicant:    %s\n", r.Applicant)
	fmt.Fprintf(&b, "Score:        %d\n", r.Score)
	fmt.Fprintf(&b, "Approval:     %s\n", r.Approval)
	fmt.Fprintf(&b, "Resume:       %s\n", pathText(r.ResumePath))
	fmt.Fprintf(&b, "Cover letter: %s\n", pathText(r.CoverLetterPath))
	fmt.Fprintf(&b, "Rationale:\n%s\n", strings.TrimSpace(r.Rationale))
	return b.String()
}

// Browse lists results until the user exits. Interrupting the prompt counts as
// exiting.
func Browse(results []ranking.Result, opts Options) error {
	if opts.Select == nil {
		opts.Select = PromptSelector
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	items := make([]string, 0, len(results)+3)
	for _, r := range results {
		items = append(items, Preview(r))
	}

	actions := make([]string, 0, 3)
	if opts.Export != nil {
		actions = append(actions, ActionExport)
	}
	if opts.DumpJSON != nil {
		actions = append(actions, ActionDumpJSON)
	}
	actions = append(actions, ActionExit)
	items = append(items, actions...)

	label := fmt.Sprintf("Ranked applicants (%d)", len(results))
	for {
		index, err := opts.Select(label, items)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		if index < 0 || index >= len(items) {
			return fmt.Errorf("invalid selection %d", index)
		}

		if index < len(results) {
			fmt.Fprintln(opts.Out, Details(results[index]))
			continue
		}

		switch items[index] {
		case ActionExport:
			path, err := opts.Export()
			if err != nil {
				return fmt.Errorf("export results: %w", err)
			}
			fmt.Fprintf(opts.Out, "Results exported to %s\n", path)
		case ActionDumpJSON:
			path, err := opts.DumpJSON()
			if err != nil {
				return fmt.Errorf("dump results to file: %w", err)
			}
			fmt.Fprintf(opts.Out, "Results dumped to %s\n", path)
		case ActionExit:
			return nil
		}
	}
}

func pathText(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}
