package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightisle/cv-screener/internal/ai"
	"github.com/brightisle/cv-screener/internal/ranking"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResults() []ranking.Result {
	return []ranking.Result{
		{Applicant: "Bob-Jones", Score: 90, Approval: ai.Approved, Rationale: "Score: 90 Rationale: Approved.", ResumePath: "/in/Resume_Bob-Jones_1.pdf"},
		{Applicant: "Alice-Smith", Score: 40, Approval: ai.Rejected, Rationale: "Score: 40 Rationale: Rejected.", ResumePath: "/in/Resume_Alice-Smith_1.pdf", CoverLetterPath: "/in/CoverLetter_Alice-Smith_1.pdf"},
		{Applicant: "Carol-White", Score: ai.UnknownScore, Approval: ai.ApprovalUnknown, Rationale: "garbled", CoverLetterPath: "/in/CoverLetter_Carol-White_1.pdf"},
	}
}

func TestSaveRunAndResults(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := store.SaveRun(ctx, Run{ID: "run-1", Criteria: "Go", Strength: 3, CreatedAt: created}, sampleResults())
	require.NoError(t, err)

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Go", run.Criteria)
	assert.Equal(t, 3, run.Strength)
	assert.Equal(t, 3, run.Applicants)
	assert.Empty(t, run.Failure)
	assert.True(t, created.Equal(run.CreatedAt))

	results, err := store.Results(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sampleResults(), results)
}

func TestSaveRunRequiresID(t *testing.T) {
	store := openStore(t)

	err := store.SaveRun(context.Background(), Run{Criteria: "Go"}, nil)
	assert.Error(t, err)
}

func TestSaveRunDuplicateIDRollsBack(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, Run{ID: "dup", Criteria: "Go", Strength: 1}, sampleResults()[:1]))
	require.Error(t, store.SaveRun(ctx, Run{ID: "dup", Criteria: "Rust", Strength: 2}, sampleResults()))

	results, err := store.Results(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "middle", "new"} {
		created := base.Add(time.Duration(i) * time.Hour).Add(time.Duration(i) * 100 * time.Millisecond)
		require.NoError(t, store.SaveRun(ctx, Run{ID: id, Criteria: "Go", Strength: 2, CreatedAt: created}, nil))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "middle", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)

	runs, err = store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].ID)
}

func TestFailedRunKeepsFailureName(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, Run{ID: "failed", Criteria: "Go", Strength: 4, Failure: "rate_limited"}, nil))

	run, err := store.GetRun(ctx, "failed")
	require.NoError(t, err)
	assert.Equal(t, "rate_limited", run.Failure)
	assert.Zero(t, run.Applicants)
	assert.False(t, run.CreatedAt.IsZero())

	results, err := store.Results(ctx, "failed")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUnknownRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = store.Results(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestScreenedPaths(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	paths, err := store.ScreenedPaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, store.SaveRun(ctx, Run{ID: "r", Criteria: "Go", Strength: 3}, sampleResults()))

	paths, err = store.ScreenedPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"/in/Resume_Bob-Jones_1.pdf":        true,
		"/in/Resume_Alice-Smith_1.pdf":      true,
		"/in/CoverLetter_Alice-Smith_1.pdf": true,
		"/in/CoverLetter_Carol-White_1.pdf": true,
	}, paths)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, Run{ID: "persisted", Criteria: "Go", Strength: 3}, sampleResults()))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].ID)
}
