// Package intake prepares the caller's file list before a screening batch:
// directories are expanded and a chain of filters validates and trims the
// list.
package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Filter represents a single step applied to the file list.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, deps Deps, files []string) ([]string, Step, error)
}

// ScreenedLister reports document paths already evaluated by earlier runs.
type ScreenedLister interface {
	ScreenedPaths(ctx context.Context) (map[string]bool, error)
}

// Deps aggregates dependencies shared across all filter steps.
type Deps struct {
	Logger  *zap.Logger
	History ScreenedLister
}

// Step describes the result of executing a filter step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DefaultSteps returns the standard chain. The screened-history step starts
// disabled unless skipScreened is set.
func DefaultSteps(skipScreened bool) []Filter {
	history := NewScreenedHistory()
	if !skipScreened {
		history.Disable("not requested")
	}
	return []Filter{NewPDFOnly(), NewDuplicates(), history}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the remaining files.
func Run(ctx context.Context, deps Deps, steps []Filter, files []string) ([]string, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, files)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		files = next
	}

	return files, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// Expand replaces every directory argument with the PDF files directly inside
// it, sorted by name. Other arguments are kept in order. Every returned path
// is absolute.
func Expand(args []string) ([]string, error) {
	files := make([]string, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			files = append(files, canonical(arg))
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}

		var found []string
		for _, entry := range entries {
			if entry.IsDir() || !IsPDF(entry.Name()) {
				continue
			}
			found = append(found, canonical(filepath.Join(arg, entry.Name())))
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, nil
}

// IsPDF reports whether path carries a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
