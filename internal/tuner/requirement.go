// Package tuner is the requirement-driven edit orchestrator: it turns weighted
// job requirements and a document snapshot into validated edit operations by
// repeatedly calling the generation client, checking drafts against
// deterministic validators, and repairing or giving up within a bounded number
// of attempts.
package tuner

import (
	"regexp"
	"strings"
)

// RequirementType is the closed set of requirement categories produced by the
// extraction stage.
type RequirementType string

const (
	TypeTool           RequirementType = "tool"
	TypePlatform       RequirementType = "platform"
	TypeMethod         RequirementType = "method"
	TypeResponsibility RequirementType = "responsibility"
	TypeDomain         RequirementType = "domain"
	TypeGovernance     RequirementType = "governance"
	TypeLeadership     RequirementType = "leadership"
	TypeCommercial     RequirementType = "commercial"
	TypeEducation      RequirementType = "education"
	TypeConstraint     RequirementType = "constraint"
)

// Requirement is one weighted job requirement. Immutable once extracted; the
// orchestrator consumes it read-only.
type Requirement struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Type     RequirementType `json:"type"`
	Weight   float64         `json:"weight"`
	MustHave bool            `json:"mustHave"`
	Aliases  []string        `json:"aliases,omitempty"`
	Evidence []string        `json:"evidence,omitempty"`
}

var yearsOfExperienceRe = regexp.MustCompile(`(?i)\b\d+\+?\s*(?:years?|yrs?)\b`)

// LockedNoEdit reports whether a requirement may only ever be detected as
// already present. Education facts and stated years of experience must never
// be fabricated through an edit.
func (r Requirement) LockedNoEdit() bool {
	if r.Type == TypeEducation {
		return true
	}
	return yearsOfExperienceRe.MatchString(r.Text)
}

// Mention is the generator's judgement of how a requirement surfaces in the
// current document.
type Mention string

const (
	MentionYes     Mention = "yes"
	MentionImplied Mention = "implied"
	MentionNone    Mention = "none"
)

// Status is the terminal per-requirement state recorded in the report.
type Status string

const (
	StatusAlreadyMentioned Status = "already_mentioned"
	StatusEdited           Status = "edited"
	StatusUnresolved       Status = "unresolved"
	StatusLockedNoEdit     Status = "locked_no_edit"
)

// OutcomeKind tags the decision outcome variant for one requirement attempt.
type OutcomeKind int

const (
	OutcomeAlready OutcomeKind = iota
	OutcomeEdit
	OutcomeUnresolved
)

// Outcome is the tagged decision produced per requirement per top-level
// attempt. Exactly one is terminal for a requirement once accepted.
type Outcome struct {
	Kind        OutcomeKind
	Path        string
	Mentioned   Mention
	Replacement string
	Reason      string
}

// ResolutionState is the per-requirement report record.
type ResolutionState struct {
	RequirementID string  `json:"requirementId"`
	Mentioned     Mention `json:"mentioned"`
	Status        Status  `json:"status"`
	ResolvedPath  string  `json:"resolvedPath,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// Fixed reason strings callers branch on. The transient reason distinguishes
// "worth retrying later" from "no feasible edit".
const (
	reasonTransient    = "Temporary service issue while resolving this requirement; please retry later."
	reasonNoCandidates = "No eligible elements available for this requirement."
	reasonLockedPolicy = "This requirement states a credential or tenure fact and cannot be satisfied by editing."
	reasonNoFeasible   = "No feasible inline edit found."
	reasonExhausted    = "Could not produce a valid resolution within the attempt limit."
)

// TransientReason reports whether a resolution failed for a transient provider
// reason, meaning a later retry might succeed.
func TransientReason(s ResolutionState) bool {
	return s.Status == StatusUnresolved && s.Reason == reasonTransient
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
