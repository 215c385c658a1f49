// Package pipeline runs a screening batch: pair documents by applicant, strip
// personal data, evaluate each applicant and rank the verdicts.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightisle/cv-screener/internal/ai"
	"github.com/brightisle/cv-screener/internal/applicant"
	"github.com/brightisle/cv-screener/internal/extract"
	"github.com/brightisle/cv-screener/internal/failure"
	"github.com/brightisle/cv-screener/internal/logger"
	"github.com/brightisle/cv-screener/internal/ranking"
	"github.com/brightisle/cv-screener/internal/sanitize"
	"github.com/brightisle/cv-screener/internal/utils"
)

// Request is one screening batch as supplied by the caller.
type Request struct {
	Paths    []string
	Criteria string
	Strength int
}

// Validate checks the request before any work starts.
func Validate(req Request) error {
	if len(req.Paths) == 0 {
		return failure.Errorf(failure.NoFiles, "validate request", "no files to screen")
	}
	if strings.TrimSpace(req.Criteria) == "" {
		return failure.Errorf(failure.NoCriteria, "validate request", "criteria must not be empty")
	}
	return ai.ValidateStrength(req.Strength)
}

// Outcome is the single message a worker delivers when the batch ends.
// Results is nil when Err is set unless partial results were requested.
type Outcome struct {
	RunID   string
	Results []ranking.Result
	Err     error
}

// Status is the per-applicant progress state reported to the caller.
type Status string

const (
	StatusEvaluating Status = "evaluating"
	StatusDone       Status = "done"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Progress describes one applicant's transition.
type Progress struct {
	Applicant string
	Index     int
	Total     int
	Status    Status
}

// Config holds the worker collaborators.
type Config struct {
	Extractor extract.Extractor
	Evaluator ai.Evaluator
	Logger    *zap.Logger
	// KeepPartial returns the ranked results gathered before a batch-fatal
	// failure instead of discarding them.
	KeepPartial bool
	// OnProgress is called from the worker goroutine.
	OnProgress func(Progress)
	// MaxLogLength bounds previews of replies in debug logs.
	MaxLogLength int
}

// Worker processes screening batches one applicant at a time.
type Worker struct {
	extractor   extract.Extractor
	evaluator   ai.Evaluator
	logger      *zap.Logger
	keepPartial bool
	onProgress  func(Progress)
	maxLogLen   int
}

func New(cfg Config) (*Worker, error) {
	if cfg.Evaluator == nil {
		return nil, errors.New("pipeline: evaluator is required")
	}

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extract.NewPDF()
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = 200
	}

	return &Worker{
		extractor:   extractor,
		evaluator:   cfg.Evaluator,
		logger:      logger.WithFields(cfg.Logger),
		keepPartial: cfg.KeepPartial,
		onProgress:  cfg.OnProgress,
		maxLogLen:   maxLogLen,
	}, nil
}

// Start validates req and processes it on a new goroutine. The returned
// channel receives exactly one Outcome and is then closed.
func (w *Worker) Start(ctx context.Context, req Request) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		done <- w.Run(ctx, req)
	}()
	return done
}

// Run processes req on the calling goroutine.
func (w *Worker) Run(ctx context.Context, req Request) Outcome {
	runID := uuid.NewString()
	log := logger.WithRun(w.logger, runID)

	if err := Validate(req); err != nil {
		log.Error("invalid request", zap.String(logger.FieldFailure, failure.KindOf(err).String()), zap.Error(err))
		return Outcome{RunID: runID, Err: err}
	}

	bundles := applicant.Aggregate(req.Paths)
	log.Info("starting the screening",
		zap.Int("files", len(req.Paths)),
		zap.Int("applicants", bundles.Len()),
		zap.Int("strength", req.Strength),
	)

	entries := make([]ranking.Entry, 0, bundles.Len())
	total := bundles.Len()

	for i, bundle := range bundles.Items() {
		progress := Progress{Applicant: bundle.Key, Index: i + 1, Total: total}
		bundleLog := log.With(logger.ApplicantFields(bundle.Key, bundle.ResumePath, bundle.CoverLetterPath)...)

		if err := ctx.Err(); err != nil {
			return w.abort(runID, entries, failure.New(failure.Unknown, "screen", err), bundleLog, progress)
		}

		if bundle.Empty() {
			w.report(progress, StatusSkipped)
			continue
		}
		if !sanitize.Wellformed(bundle.Key) {
			bundleLog.Warn("applicant key is not First-Last, names may be partly redacted")
		}

		resume, resumeOK := w.documentText(bundle.ResumePath, bundle.Key, bundleLog)
		cover, coverOK := w.documentText(bundle.CoverLetterPath, bundle.Key, bundleLog)
		if !resumeOK && !coverOK {
			bundleLog.Warn("skipping applicant", zap.String("reason", "no readable documents"))
			w.report(progress, StatusSkipped)
			continue
		}

		prompt, err := ai.BuildPrompt(req.Criteria, req.Strength, resume, cover)
		if err != nil {
			return w.abort(runID, entries, err, bundleLog, progress)
		}

		w.report(progress, StatusEvaluating)
		reply, err := w.evaluator.Evaluate(ctx, prompt)
		if err != nil {
			if failure.KindOf(err).BatchFatal() {
				return w.abort(runID, entries, err, bundleLog, progress)
			}
			bundleLog.Warn("skipping applicant",
				zap.String(logger.FieldFailure, failure.KindOf(err).String()),
				zap.Error(err),
			)
			w.report(progress, StatusSkipped)
			continue
		}

		verdict := ai.ParseVerdict(reply)
		if !verdict.ScoreKnown() {
			bundleLog.Warn("evaluator reply carried no score", zap.String("reply", utils.TruncateForLog(reply, w.maxLogLen)))
		}
		bundleLog.Info("applicant evaluated",
			zap.Int("score", verdict.Score),
			zap.String("approval", string(verdict.Approval)),
		)
		bundleLog.Debug("evaluator reply", zap.String("reply", utils.TruncateForLog(reply, w.maxLogLen)))

		entries = append(entries, ranking.Entry{
			Applicant:       bundle.Key,
			Verdict:         verdict,
			ResumePath:      bundle.ResumePath,
			CoverLetterPath: bundle.CoverLetterPath,
		})
		w.report(progress, StatusDone)
	}

	results := ranking.Rank(entries)
	log.Info("screening finished", zap.Int("evaluated", len(results)))

	return Outcome{RunID: runID, Results: results}
}

// documentText returns the sanitized text of path, or the absent sentinel when
// the slot is empty or the file cannot be read. ok is false for the latter.
func (w *Worker) documentText(path, key string, log *zap.Logger) (string, bool) {
	if path == "" {
		return sanitize.Absent, false
	}

	text, err := w.extractor.ExtractText(path)
	if err != nil {
		log.Error("extracting document text",
			zap.String("path", path),
			zap.String(logger.FieldFailure, failure.KindOf(err).String()),
			zap.Error(err),
		)
		return sanitize.Absent, false
	}

	return sanitize.Text(text, key), true
}

func (w *Worker) abort(runID string, entries []ranking.Entry, err error, log *zap.Logger, progress Progress) Outcome {
	kind := failure.KindOf(err)
	log.Error("screening aborted",
		zap.String(logger.FieldFailure, kind.String()),
		zap.Int("evaluated", len(entries)),
		zap.Error(err),
	)
	w.report(progress, StatusFailed)

	outcome := Outcome{RunID: runID, Err: err}
	if w.keepPartial {
		outcome.Results = ranking.Rank(entries)
	}
	return outcome
}

func (w *Worker) report(p Progress, status Status) {
	if w.onProgress == nil {
		return
	}
	p.Status = status
	w.onProgress(p)
}
