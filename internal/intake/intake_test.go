package intake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brightisle/cv-screener/internal/failure"
)

type fakeHistory struct {
	paths map[string]bool
	err   error
}

func (f fakeHistory) ScreenedPaths(context.Context) (map[string]bool, error) {
	return f.paths, f.err
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Resume_B-B_1.pdf", "Resume_A-A_1.PDF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o750); err != nil {
		t.Fatal(err)
	}

	single := filepath.Join(dir, "CoverLetter_C-C_1.pdf")
	got, err := Expand([]string{single, dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		single,
		filepath.Join(dir, "Resume_A-A_1.PDF"),
		filepath.Join(dir, "Resume_B-B_1.pdf"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExpandMakesPathsAbsolute(t *testing.T) {
	got, err := Expand([]string{"Resume_A-A_1.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !filepath.IsAbs(got[0]) {
		t.Fatalf("expected one absolute path, got %v", got)
	}
}

func TestPDFOnly(t *testing.T) {
	files := []string{"/in/Resume_A-A_1.pdf", "/in/CoverLetter_A-A_1.PDF"}

	got, step, err := NewPDFOnly().Apply(context.Background(), Deps{}, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, files) || step != (Step{Initial: 2, Left: 2}) {
		t.Fatalf("unexpected result %v %+v", got, step)
	}

	_, _, err = NewPDFOnly().Apply(context.Background(), Deps{}, append(files, "/in/photo.png"))
	if failure.KindOf(err) != failure.NotPDF {
		t.Fatalf("expected not_pdf failure, got %v", err)
	}
}

func TestDuplicates(t *testing.T) {
	files := []string{"/in/a.pdf", "/in/b.pdf", "/in/./a.pdf", "/in/b.pdf"}

	got, step, err := NewDuplicates().Apply(context.Background(), Deps{}, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/in/a.pdf", "/in/b.pdf"}) {
		t.Fatalf("unexpected files %v", got)
	}
	if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
		t.Fatalf("unexpected step %+v", step)
	}
}

func TestRunSkipsDisabledDuplicates(t *testing.T) {
	steps := DefaultSteps(false)
	DisableByName(steps, "duplicates", "--no-dedupe")

	files := []string{"/in/a.pdf", "/in/a.pdf"}
	got, err := Run(context.Background(), Deps{}, steps, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, files) {
		t.Fatalf("disabled duplicates step must keep every file, got %v", got)
	}
}

func TestScreenedHistory(t *testing.T) {
	deps := Deps{History: fakeHistory{paths: map[string]bool{"/in/a.pdf": true}}}

	got, step, err := NewScreenedHistory().Apply(context.Background(), deps, []string{"/in/a.pdf", "/in/b.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/in/b.pdf"}) || step.Dropped != 1 {
		t.Fatalf("unexpected result %v %+v", got, step)
	}

	got, _, err = NewScreenedHistory().Apply(context.Background(), Deps{}, []string{"/in/a.pdf"})
	if err != nil || len(got) != 1 {
		t.Fatalf("expected passthrough without history, got %v %v", got, err)
	}

	_, _, err = NewScreenedHistory().Apply(context.Background(), Deps{History: fakeHistory{err: errors.New("db locked")}}, []string{"/in/a.pdf"})
	if err == nil {
		t.Fatal("expected history error")
	}
}

func TestRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	deps := Deps{
		Logger:  zap.New(core),
		History: fakeHistory{paths: map[string]bool{"/in/old.pdf": true}},
	}

	files := []string{"/in/old.pdf", "/in/new.pdf", "/in/new.pdf"}
	got, err := Run(context.Background(), deps, DefaultSteps(true), files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/in/new.pdf"}) {
		t.Fatalf("unexpected files %v", got)
	}
	if n := logs.FilterMessage("filter step").Len(); n != 3 {
		t.Fatalf("expected 3 filter step logs, got %d", n)
	}

	got, err = Run(context.Background(), deps, DefaultSteps(false), files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/in/old.pdf", "/in/new.pdf"}) {
		t.Fatalf("expected screened files to be kept, got %v", got)
	}
}

func TestRunWrapsStepName(t *testing.T) {
	_, err := Run(context.Background(), Deps{}, DefaultSteps(false), []string{"/in/a.docx"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "pdf_only: check files: not_pdf: /in/a.docx is not a pdf" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
	if failure.KindOf(err) != failure.NotPDF {
		t.Fatalf("expected not_pdf kind through wrapping, got %s", failure.KindOf(err))
	}
}

func TestDescribe(t *testing.T) {
	steps := DefaultSteps(false)
	DisableByName(steps, "duplicates", "--no-dedupe")
	DisableByName(steps, "pdf_only", "ignored")

	statuses := Describe(steps)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "pdf_only" || !statuses[0].Enabled {
		t.Fatalf("unexpected pdf_only status %+v", statuses[0])
	}
	if statuses[1].Name != "duplicates" || statuses[1].Enabled || statuses[1].Reason != "--no-dedupe" {
		t.Fatalf("unexpected duplicates status %+v", statuses[1])
	}
	history := statuses[2]
	if history.Enabled || history.Reason != "not requested" || history.Details["skip_screened"] != "false" {
		t.Fatalf("unexpected screened_history status %+v", history)
	}
}
