package ai

import (
	"regexp"
	"strconv"
)

// UnknownScore marks a reply without a parseable score. It always ranks last.
const UnknownScore = -1

// Approval is the decision label extracted from a reply.
type Approval string

const (
	Approved        Approval = "Approved"
	Rejected        Approval = "Rejected"
	ApprovalUnknown Approval = "Unknown"
)

const maxScore = 100

var (
	scoreRe     = regexp.MustCompile(`Score:\s*(\d+)`)
	rationaleRe = regexp.MustCompile(`Rationale:\s*(Approved|Rejected)\b\.?`)
)

// Verdict is the structured form of one model reply.
type Verdict struct {
	Score    int      `json:"score"`
	Approval Approval `json:"approval"`
	Raw      string   `json:"raw"`
}

// ScoreKnown reports whether the reply carried a score.
func (v Verdict) ScoreKnown() bool {
	return v.Score != UnknownScore
}

// ParseVerdict extracts the score and approval label from a free-text reply of
// the form "Score: <int> Rationale: <Approved|Rejected>. <explanation>".
// Missing or malformed parts degrade to UnknownScore and ApprovalUnknown; the
// raw reply is always kept.
func ParseVerdict(raw string) Verdict {
	v := Verdict{Score: UnknownScore, Approval: ApprovalUnknown, Raw: raw}

	if m := scoreRe.FindStringSubmatch(raw); len(m) > 1 {
		// Digits only, so the sole Atoi failure is overflow.
		if score, err := strconv.Atoi(m[1]); err == nil {
			v.Score = min(score, maxScore)
		} else {
			v.Score = maxScore
		}
	}

	if m := rationaleRe.FindStringSubmatch(raw); len(m) > 1 {
		v.Approval = Approval(m[1])
	}

	return v
}
