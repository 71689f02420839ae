package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// AnswerSnippetLimit caps the stored prefix of a raw answer
const AnswerSnippetLimit = 500

// Analysis is the derived fragment produced by the answer analyzer from one
// raw answer. It carries no identity; CheckRunner stamps it into a
// VisibilityCheck.
type Analysis struct {
	Presence             bool
	Position             *int
	CitationsCount       int
	ObservedURLs         []string
	CompetitorsMentioned []string
	AnswerSnippet        string
}

// VisibilityCheck is one observation: a keyword queried against an engine at a
// point in time, with the analyzer's findings. Immutable once created.
type VisibilityCheck struct {
	ID                   string
	ProjectID            string
	Engine               Engine
	Keyword              string
	Presence             bool
	Position             *int
	CitationsCount       int
	ObservedURLs         []string
	CompetitorsMentioned []string
	AnswerSnippet        string
	Timestamp            time.Time
}

// NewVisibilityCheck combines identity with an analysis fragment
func NewVisibilityCheck(id, projectID string, engine Engine, keyword string, a *Analysis, timestamp time.Time) *VisibilityCheck {
	return &VisibilityCheck{
		ID:                   id,
		ProjectID:            projectID,
		Engine:               engine,
		Keyword:              keyword,
		Presence:             a.Presence,
		Position:             a.Position,
		CitationsCount:       a.CitationsCount,
		ObservedURLs:         a.ObservedURLs,
		CompetitorsMentioned: a.CompetitorsMentioned,
		AnswerSnippet:        a.AnswerSnippet,
		Timestamp:            timestamp,
	}
}

// ValidateVisibilityCheck validates a VisibilityCheck instance, including the
// coupled invariants: position is set exactly when presence is true, and
// citations count is positive exactly when presence is true.
func ValidateVisibilityCheck(c *VisibilityCheck) error {
	if c == nil {
		return fmt.Errorf("visibility check cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("visibility check ID is required")
	}

	if c.ProjectID == "" {
		return fmt.Errorf("visibility check ProjectID is required")
	}

	if c.Engine == "" {
		return fmt.Errorf("visibility check Engine is required")
	}

	if c.Keyword == "" {
		return fmt.Errorf("visibility check Keyword is required")
	}

	if c.Timestamp.IsZero() {
		return fmt.Errorf("visibility check Timestamp is required")
	}

	if c.CitationsCount < 0 {
		return fmt.Errorf("visibility check CitationsCount cannot be negative")
	}

	if utf8.RuneCountInString(c.AnswerSnippet) > AnswerSnippetLimit {
		return fmt.Errorf("visibility check AnswerSnippet exceeds %d characters", AnswerSnippetLimit)
	}

	if c.Presence {
		if c.Position == nil {
			return fmt.Errorf("visibility check Position is required when Presence is true")
		}
		if *c.Position < 1 {
			return fmt.Errorf("visibility check Position must be positive")
		}
		if c.CitationsCount < 1 {
			return ErrCitationsDisagreePresence
		}
	} else {
		if c.Position != nil {
			return ErrPositionWithoutPresence
		}
		if c.CitationsCount != 0 {
			return ErrCitationsDisagreePresence
		}
	}

	return nil
}

// CheckFailureKind classifies why a matrix cell produced no record
type CheckFailureKind string

const (
	CheckFailureExternalService CheckFailureKind = "external_service"
	CheckFailureInvalidInput    CheckFailureKind = "invalid_input"
	CheckFailureDataIntegrity   CheckFailureKind = "data_integrity"
)

// CheckFailure is the failure outcome of one (keyword, engine) cell
type CheckFailure struct {
	Keyword string
	Engine  Engine
	Kind    CheckFailureKind
	Message string
}

// Error implements the error interface
func (f *CheckFailure) Error() string {
	return fmt.Sprintf("check %q on %s failed (%s): %s", f.Keyword, f.Engine, f.Kind, f.Message)
}

// CheckOutcome is exactly one of a successful check or a failure
type CheckOutcome struct {
	Check   *VisibilityCheck
	Failure *CheckFailure
}

// OK returns true if the outcome carries a successful check
func (o CheckOutcome) OK() bool {
	return o.Check != nil
}

// CheckBatchResult is the transient output of one full keyword × engine run.
// Outcomes are in matrix order: keywords outer, engines inner.
type CheckBatchResult struct {
	ProjectID string
	StartedAt time.Time
	Outcomes  []CheckOutcome
}

// Succeeded returns how many cells produced a check
func (r *CheckBatchResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns how many cells produced a failure
func (r *CheckBatchResult) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Checks returns the successful records in outcome order
func (r *CheckBatchResult) Checks() []*VisibilityCheck {
	var checks []*VisibilityCheck
	for _, o := range r.Outcomes {
		if o.OK() {
			checks = append(checks, o.Check)
		}
	}
	return checks
}

// Failures returns the failed cells in outcome order
func (r *CheckBatchResult) Failures() []*CheckFailure {
	var failures []*CheckFailure
	for _, o := range r.Outcomes {
		if !o.OK() {
			failures = append(failures, o.Failure)
		}
	}
	return failures
}

// Summary renders the user-visible "N of M checks completed" line
func (r *CheckBatchResult) Summary() string {
	return fmt.Sprintf("%d of %d checks completed", r.Succeeded(), len(r.Outcomes))
}
