// Package ranking orders evaluated applicants and flattens them into the
// export table.
package ranking

import (
	"slices"
	"strconv"
	"strings"

	"github.com/brightisle/cv-screener/internal/ai"
)

// Entry is one evaluated applicant in discovery order.
type Entry struct {
	Applicant       string
	Verdict         ai.Verdict
	ResumePath      string
	CoverLetterPath string
}

// Result is one ranked applicant.
type Result struct {
	Applicant       string      `json:"applicant"`
	Score           int         `json:"score"`
	Approval        ai.Approval `json:"approval"`
	Rationale       string      `json:"rationale"`
	ResumePath      string      `json:"resume_path,omitempty"`
	CoverLetterPath string      `json:"cover_letter_path,omitempty"`
}

// Rank orders entries by score descending. Unknown scores (-1) sort last and
// ties keep their discovery order.
func Rank(entries []Entry) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Result{
			Applicant:       e.Applicant,
			Score:           e.Verdict.Score,
			Approval:        e.Verdict.Approval,
			Rationale:       e.Verdict.Raw,
			ResumePath:      e.ResumePath,
			CoverLetterPath: e.CoverLetterPath,
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return b.Score - a.Score
	})
	return results
}

// Header is the fixed column layout external spreadsheet tooling relies on.
var Header = []string{"Name", "Score", "Approval", "Rationale"}

// Table is the tabular export of a ranking.
type Table struct {
	Header []string
	Rows   [][]string
}

// ToTable flattens ranked results into rows in ranked order.
func ToTable(results []Result) Table {
	table := Table{
		Header: slices.Clone(Header),
		Rows:   make([][]string, 0, len(results)),
	}
	for _, r := range results {
		table.Rows = append(table.Rows, []string{
			r.Applicant,
			strconv.Itoa(r.Score),
			string(r.Approval),
			strings.TrimSpace(r.Rationale),
		})
	}
	return table
}
