package tuner

import (
	"context"
	"strings"

	"tailor/internal/llm"
	"tailor/internal/resume"
)

// maxDecisionAttempts bounds provider calls per requirement.
const maxDecisionAttempts = 3

// Operation is one atomic, append-only edit instruction.
type Operation struct {
	Op            string          `json:"op"`
	Path          string          `json:"path"`
	Value         string          `json:"value"`
	RequirementID string          `json:"requirementId"`
	Mentioned     Mention         `json:"mentioned"`
	ItemType      RequirementType `json:"itemType"`
}

// ResolveRequest is one per-requirement tuning request.
type ResolveRequest struct {
	Document            *resume.Document               `json:"document"`
	Profiles            map[string]resume.FieldProfile `json:"profiles"`
	Requirements        []Requirement                  `json:"requirements"`
	PermittedVocabulary []string                       `json:"permittedVocabulary,omitempty"`
	ResolutionCap       int                            `json:"resolutionCap,omitempty"`
}

// ResolveResult is the per-requirement response payload. Error is populated
// only when zero operations were produced and at least one requirement failed
// for a transient reason.
type ResolveResult struct {
	Operations []Operation       `json:"operations"`
	Report     []ResolutionState `json:"report"`
	Error      string            `json:"error,omitempty"`
}

// Progress is the observational side channel emitted after each requirement.
type Progress struct {
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	State     ResolutionState `json:"state"`
}

// ProgressSink receives progress events in requirement processing order.
type ProgressSink func(Progress)

// Resolver drives the per-requirement repair loop.
type Resolver struct {
	client  llm.Client
	prompts PromptBuilder
}

func NewResolver(client llm.Client) *Resolver {
	return &Resolver{client: client}
}

// ResolveAll processes requirements strictly sequentially: the resolution
// budget and candidate availability are shared state across requirements, and
// "earliest eligible candidate" would be racy otherwise. A permanent provider
// failure aborts the whole request; everything expected comes back as typed
// outcomes.
func (r *Resolver) ResolveAll(ctx context.Context, req ResolveRequest, sink ProgressSink) (*ResolveResult, error) {
	working := req.Document.Clone()
	budget := newResolutionBudget(req.ResolutionCap)
	allowlist := BuildVocabularyAllowlist(req.Document, req.PermittedVocabulary)

	result := &ResolveResult{
		Operations: []Operation{},
		Report:     make([]ResolutionState, 0, len(req.Requirements)),
	}
	sawTransient := false

	for i, requirement := range req.Requirements {
		state, op, err := r.resolveOne(ctx, requirement, working, req.Profiles, budget, allowlist)
		if err != nil {
			return nil, err
		}
		if op != nil {
			resume.Set(working, op.Path, op.Value)
			result.Operations = append(result.Operations, *op)
		}
		if TransientReason(state) {
			sawTransient = true
		}
		result.Report = append(result.Report, state)
		if sink != nil {
			sink(Progress{Completed: i + 1, Total: len(req.Requirements), State: state})
		}
	}

	if len(result.Operations) == 0 && sawTransient {
		result.Error = reasonTransient
	}
	return result, nil
}

func (r *Resolver) resolveOne(
	ctx context.Context,
	requirement Requirement,
	working *resume.Document,
	profiles map[string]resume.FieldProfile,
	budget *resolutionBudget,
	allowlist map[string]bool,
) (ResolutionState, *Operation, error) {
	eligible := budget.eligible(BuildCandidates(working, profiles))
	if len(eligible) == 0 {
		// Short-circuit without spending a provider call.
		return ResolutionState{
			RequirementID: requirement.ID,
			Mentioned:     MentionNone,
			Status:        StatusUnresolved,
			Reason:        reasonNoCandidates,
		}, nil, nil
	}

	unit := &decisionUnit{
		client:      r.client,
		prompts:     &r.prompts,
		requirement: requirement,
		locked:      requirement.LockedNoEdit(),
		candidates:  eligible,
		allowlist:   allowlist,
	}

	res, err := runRepair(ctx, maxDecisionAttempts, unit)
	if err != nil {
		return ResolutionState{}, nil, err
	}

	switch res {
	case repairTransient:
		return ResolutionState{
			RequirementID: requirement.ID,
			Mentioned:     MentionNone,
			Status:        StatusUnresolved,
			Reason:        reasonTransient,
		}, nil, nil
	case repairExhausted:
		return ResolutionState{
			RequirementID: requirement.ID,
			Mentioned:     MentionNone,
			Status:        StatusUnresolved,
			Reason:        reasonExhausted,
		}, nil, nil
	}

	outcome := unit.outcome
	switch outcome.Kind {
	case OutcomeAlready:
		budget.consume(outcome.Path)
		return ResolutionState{
			RequirementID: requirement.ID,
			Mentioned:     MentionYes,
			Status:        StatusAlreadyMentioned,
			ResolvedPath:  outcome.Path,
			Reason:        outcome.Reason,
		}, nil, nil
	case OutcomeEdit:
		budget.consume(outcome.Path)
		op := &Operation{
			Op:            "replace",
			Path:          outcome.Path,
			Value:         outcome.Replacement,
			RequirementID: requirement.ID,
			Mentioned:     outcome.Mentioned,
			ItemType:      requirement.Type,
		}
		return ResolutionState{
			RequirementID: requirement.ID,
			Mentioned:     outcome.Mentioned,
			Status:        StatusEdited,
			ResolvedPath:  outcome.Path,
			Reason:        outcome.Reason,
		}, op, nil
	default:
		status := StatusUnresolved
		if outcome.Reason == reasonLockedPolicy {
			status = StatusLockedNoEdit
		}
		return ResolutionState{
			RequirementID: requirement.ID,
			Mentioned:     outcome.Mentioned,
			Status:        status,
			Reason:        outcome.Reason,
		}, nil, nil
	}
}

// decisionUnit is the per-requirement repair unit: one provider decision per
// attempt, judged by the structural rules and the validator pipeline.
type decisionUnit struct {
	client      llm.Client
	prompts     *PromptBuilder
	requirement Requirement
	locked      bool
	candidates  []CandidateElement
	allowlist   map[string]bool

	draft   *llm.Decision
	outcome Outcome
}

func (u *decisionUnit) Generate(ctx context.Context, feedback string, attempt int) error {
	prompt := u.prompts.BuildDecisionPrompt(u.requirement, u.locked, u.candidates, feedback)
	draft, err := u.client.GenerateDecision(ctx, u.prompts.DecisionSystem(), prompt)
	if err != nil {
		return err
	}
	u.draft = draft
	return nil
}

func (u *decisionUnit) HasFallback() bool { return false }

func (u *decisionUnit) Validate(attempt int) (bool, string) {
	d := u.draft
	mentioned := Mention(d.Mentioned)
	proposesEdit := strings.TrimSpace(d.ProposedText) != ""

	// Structural errors consume a retry with corrective feedback instead of
	// failing the attempt outright.
	if d.Path != "" {
		if _, ok := findCandidate(u.candidates, d.Path); !ok {
			return false, structuralFeedback("the path " + d.Path + " is not among the eligible fields; choose one of the listed paths exactly")
		}
	}
	if mentioned == MentionYes && d.Path == "" {
		return false, structuralFeedback("mentioned=yes requires the path of the field that already covers the requirement")
	}
	if proposesEdit && d.Path == "" {
		return false, structuralFeedback("an edit requires the path of exactly one eligible field")
	}
	if d.Path != "" && mentioned != MentionYes && !proposesEdit {
		return false, structuralFeedback("a path without proposedText is only valid with mentioned=yes; either provide the replacement text or drop the path")
	}

	// A locked requirement admits no edit, however well-formed.
	if u.locked && proposesEdit {
		u.outcome = Outcome{Kind: OutcomeUnresolved, Mentioned: mentioned, Reason: reasonLockedPolicy}
		return true, ""
	}

	if mentioned == MentionYes {
		u.outcome = Outcome{Kind: OutcomeAlready, Path: d.Path, Mentioned: MentionYes, Reason: d.Reason}
		return true, ""
	}

	if proposesEdit {
		candidate, _ := findCandidate(u.candidates, d.Path)
		issue := runValidators(ValidationContext{
			Source:          candidate.Text,
			Candidate:       d.ProposedText,
			MaxLines:        candidate.MaxLines,
			MaxCharsPerLine: candidate.MaxCharsPerLine,
			MaxCharsTotal:   candidate.MaxCharsTotal,
			Allowlist:       u.allowlist,
		}, ValidateVocabulary, ValidateLengthFit)
		if issue != nil {
			return false, repairFeedback(issue)
		}
		// Suppress no-op edits: an edit that changes nothing is not a
		// resolution.
		if normalizeText(d.ProposedText) == normalizeText(candidate.Text) {
			u.outcome = Outcome{Kind: OutcomeUnresolved, Mentioned: mentioned, Reason: reasonNoFeasible}
			return true, ""
		}
		u.outcome = Outcome{Kind: OutcomeEdit, Path: d.Path, Mentioned: mentioned, Replacement: d.ProposedText, Reason: d.Reason}
		return true, ""
	}

	reason := strings.TrimSpace(d.Reason)
	if reason == "" {
		reason = reasonNoFeasible
	}
	u.outcome = Outcome{Kind: OutcomeUnresolved, Mentioned: mentioned, Reason: reason}
	return true, ""
}
