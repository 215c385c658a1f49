package intake

import (
	"context"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/brightisle/cv-screener/internal/failure"
)

type pdfOnlyFilter struct{}

// NewPDFOnly creates a filter that rejects the whole list when any file is
// not a PDF.
func NewPDFOnly() Filter {
	return &pdfOnlyFilter{}
}

func (f *pdfOnlyFilter) Name() string { return "pdf_only" }

func (f *pdfOnlyFilter) Disable(string) {}

func (f *pdfOnlyFilter) IsEnabled() bool { return true }

func (f *pdfOnlyFilter) Apply(_ context.Context, _ Deps, files []string) ([]string, Step, error) {
	for _, file := range files {
		if !IsPDF(file) {
			return nil, Step{}, failure.Errorf(failure.NotPDF, "check files", "%s is not a pdf", file)
		}
	}
	return files, Step{Initial: len(files), Left: len(files)}, nil
}

func (f *pdfOnlyFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type duplicatesFilter struct {
	disabled bool
	reason   string
}

// NewDuplicates creates a filter that drops repeated paths, keeping the first
// occurrence.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *duplicatesFilter) IsEnabled() bool { return !f.disabled }

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

func (f *duplicatesFilter) Apply(_ context.Context, deps Deps, files []string) ([]string, Step, error) {
	seen := make(map[string]bool, len(files))
	kept := make([]string, 0, len(files))
	var dropped []string

	for _, file := range files {
		key := canonical(file)
		if seen[key] {
			dropped = append(dropped, file)
			continue
		}
		seen[key] = true
		kept = append(kept, file)
	}

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding duplicate files",
			zap.Strings("excluded_files", dropped),
			zap.Int("files_left", len(kept)),
		)
	}

	return kept, Step{Initial: len(files), Dropped: len(dropped), Left: len(kept)}, nil
}

type screenedHistoryFilter struct {
	disabled bool
	reason   string
}

// NewScreenedHistory creates a filter that drops files evaluated by an
// earlier recorded run.
func NewScreenedHistory() Filter {
	return &screenedHistoryFilter{}
}

func (f *screenedHistoryFilter) Name() string { return "screened_history" }

func (f *screenedHistoryFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *screenedHistoryFilter) IsEnabled() bool { return !f.disabled }

func (f *screenedHistoryFilter) Apply(ctx context.Context, deps Deps, files []string) ([]string, Step, error) {
	initial := len(files)
	if deps.History == nil {
		if deps.Logger != nil {
			deps.Logger.Info("history is not configured; skipping screened_history filter")
		}
		return files, Step{Initial: initial, Left: initial}, nil
	}

	screened, err := deps.History.ScreenedPaths(ctx)
	if err != nil {
		return nil, Step{}, err
	}

	kept := make([]string, 0, len(files))
	var dropped []string
	for _, file := range files {
		if screened[file] || screened[canonical(file)] {
			dropped = append(dropped, file)
			continue
		}
		kept = append(kept, file)
	}

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding files screened in earlier runs",
			zap.Strings("excluded_files", dropped),
			zap.Int("files_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *screenedHistoryFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"skip_screened": strconv.FormatBool(f.IsEnabled())},
	}
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
