package tuner

import (
	"context"
	"errors"

	"tailor/internal/layout"
	"tailor/internal/llm"
	"tailor/internal/report"
	"tailor/internal/resume"
)

// maxTuningAttempts bounds provider calls per whole-document tuning pass.
const maxTuningAttempts = 4

// TuneRequest is one job-targeted whole-document tuning request.
type TuneRequest struct {
	Document            *resume.Document               `json:"document"`
	Profiles            map[string]resume.FieldProfile `json:"profiles"`
	JobText             string                         `json:"jobText"`
	Claims              map[string]string              `json:"claims"`
	PermittedVocabulary []string                       `json:"permittedVocabulary,omitempty"`
	AllowSkillDeletions bool                           `json:"allowSkillDeletions,omitempty"`
	ScrapeWarning       string                         `json:"scrapeWarning,omitempty"`
}

// Estimation is the page verdict attached to the response.
type Estimation struct {
	ResumePages      int  `json:"resumePages"`
	CoverLetterPages int  `json:"coverLetterPages"`
	WithinLimit      bool `json:"withinLimit"`
}

// AttemptRecord is retained per attempt for diagnostics. The lowest combined
// page count becomes the fallback candidate when no attempt fits.
type AttemptRecord struct {
	Attempt            int                 `json:"attempt"`
	InvalidEvidenceIDs []string            `json:"invalidEvidenceIds,omitempty"`
	Estimation         layout.PageEstimate `json:"estimation"`
	WithinLimit        bool                `json:"withinLimit"`
	Applied            int                 `json:"applied"`
	Reverted           int                 `json:"reverted"`
}

// TuneResult is the whole-document response payload.
type TuneResult struct {
	OptimizedResume *resume.Document   `json:"optimizedResume"`
	JSONPatch       []report.PatchOp   `json:"jsonPatch"`
	Diffs           []report.DiffEntry `json:"diffs"`
	Estimation      Estimation         `json:"estimation"`
	ScrapeWarning   string             `json:"scrapeWarning,omitempty"`
	FitError        string             `json:"fitError,omitempty"`
	Raw             struct {
		Attempts []AttemptRecord `json:"attempts"`
	} `json:"raw"`
}

const fitErrorNotice = "Could not fit the document within the requested page limits; returning the closest attempt."

// Tuner drives the whole-document repair loop.
type Tuner struct {
	client  llm.Client
	prompts PromptBuilder
}

func NewTuner(client llm.Client) *Tuner {
	return &Tuner{client: client}
}

// Tune generates full-document drafts until one fits the page limits, keeping
// the best-seen attempt as a labeled fallback. A permanent provider failure
// propagates; producing no usable draft at all is a hard failure.
func (t *Tuner) Tune(ctx context.Context, req TuneRequest) (*TuneResult, error) {
	candidates := BuildCandidates(req.Document, req.Profiles)
	allowed := make(map[string]bool, len(req.Claims))
	for id := range req.Claims {
		allowed[id] = true
	}

	unit := &documentUnit{
		client:    t.client,
		prompts:   &t.prompts,
		req:       req,
		fields:    candidates,
		allowlist: BuildVocabularyAllowlist(req.Document, req.PermittedVocabulary),
		allowed:   allowed,
	}

	res, err := runRepair(ctx, maxTuningAttempts, unit)
	if err != nil {
		return nil, err
	}

	var tuned *resume.Document
	var estimate layout.PageEstimate
	fitError := ""
	switch res {
	case repairAccepted:
		tuned = unit.accepted
		estimate = unit.acceptedEstimate
	case repairBestEffort:
		tuned = unit.best
		estimate = unit.bestEstimate
		fitError = fitErrorNotice
	case repairTransient:
		return nil, errors.New("generation service temporarily unavailable; no usable draft was produced")
	default:
		return nil, errors.New("no usable draft was produced within the attempt limit")
	}

	patch, diffs := report.Build(req.Document, tuned, report.Options{
		AllowSkillDeletions: req.AllowSkillDeletions,
		Keywords:            ExtractKeywordHints(req.JobText, 12),
		Profiles:            req.Profiles,
		EvidenceByPath:      unit.evidenceByPath,
	})

	out := &TuneResult{
		OptimizedResume: tuned,
		JSONPatch:       patch,
		Diffs:           diffs,
		Estimation: Estimation{
			ResumePages:      estimate.ResumePages,
			CoverLetterPages: estimate.CoverLetterPages,
			WithinLimit:      fitError == "",
		},
		ScrapeWarning: req.ScrapeWarning,
		FitError:      fitError,
	}
	out.Raw.Attempts = unit.attempts
	return out, nil
}

// documentUnit is the whole-document repair unit.
type documentUnit struct {
	client    llm.Client
	prompts   *PromptBuilder
	req       TuneRequest
	fields    []CandidateElement
	allowlist map[string]bool
	allowed   map[string]bool

	draft    *llm.DocumentDraft
	attempts []AttemptRecord

	accepted         *resume.Document
	acceptedEstimate layout.PageEstimate
	best             *resume.Document
	bestEstimate     layout.PageEstimate
	evidenceByPath   map[string][]string
}

func (u *documentUnit) Generate(ctx context.Context, feedback string, attempt int) error {
	prompt := u.prompts.BuildTuningPrompt(TuningInputs{
		JobText:             u.req.JobText,
		MaxResumePages:      u.req.Document.Layout.MaxResumePages,
		MaxCoverLetterPages: u.req.Document.Layout.MaxCoverLetterPages,
		KeywordHints:        ExtractKeywordHints(u.req.JobText, 12),
		ClaimCatalogue:      u.req.Claims,
		Document:            u.req.Document,
		EditableFields:      u.fields,
		AllowSkillDeletions: u.req.AllowSkillDeletions,
	}, feedback)
	draft, err := u.client.GenerateDraft(ctx, u.prompts.TuningSystem(), prompt)
	if err != nil {
		return err
	}
	u.draft = draft
	return nil
}

func (u *documentUnit) HasFallback() bool { return u.best != nil }

func (u *documentUnit) Validate(attempt int) (bool, string) {
	record := AttemptRecord{Attempt: attempt}

	// Every referenced claim id must be in the catalogue before anything is
	// applied; otherwise the whole attempt is rejected with the invalid union.
	invalid := u.invalidEvidenceIDs()
	if len(invalid) > 0 {
		record.InvalidEvidenceIDs = invalid
		u.attempts = append(u.attempts, record)
		return false, invalidEvidenceFeedback(invalid)
	}

	working, evidenceByPath, applied, reverted := u.materialize()
	record.Applied = applied
	record.Reverted = reverted

	estimate := layout.EstimatePages(working)
	record.Estimation = estimate
	record.WithinLimit = u.withinLimits(estimate)
	u.attempts = append(u.attempts, record)

	if record.WithinLimit {
		u.accepted = working
		u.acceptedEstimate = estimate
		u.evidenceByPath = evidenceByPath
		return true, ""
	}

	if u.best == nil || estimate.Combined() < u.bestEstimate.Combined() {
		u.best = working
		u.bestEstimate = estimate
		u.evidenceByPath = evidenceByPath
	}

	limits := u.req.Document.Layout
	return false, pageOverageFeedback(estimate.ResumePages, limits.MaxResumePages, estimate.CoverLetterPages, limits.MaxCoverLetterPages)
}

func (u *documentUnit) invalidEvidenceIDs() []string {
	seen := make(map[string]bool)
	var invalid []string
	for _, f := range u.draft.Fields {
		for _, id := range f.EvidenceIDs {
			if u.allowed[id] || seen[id] {
				continue
			}
			seen[id] = true
			invalid = append(invalid, id)
		}
	}
	return invalid
}

// materialize applies each field draft through the validator pipeline. Fields
// failing any validator silently keep their original value; one bad field
// never aborts the attempt.
func (u *documentUnit) materialize() (*resume.Document, map[string][]string, int, int) {
	working := u.req.Document.Clone()
	evidenceByPath := make(map[string][]string)
	applied, reverted := 0, 0

	for _, f := range u.draft.Fields {
		candidate, ok := findCandidate(u.fields, f.Path)
		if !ok {
			continue
		}
		issue := runValidators(ValidationContext{
			Source:          candidate.Text,
			Candidate:       f.Text,
			MaxLines:        candidate.MaxLines,
			MaxCharsPerLine: candidate.MaxCharsPerLine,
			MaxCharsTotal:   candidate.MaxCharsTotal,
			EvidenceIDs:     f.EvidenceIDs,
			AllowedEvidence: u.allowed,
			Allowlist:       u.allowlist,
		}, ValidateEvidence, ValidateVocabulary, ValidateNumericFacts, ValidateLengthFit)
		if issue != nil {
			reverted++
			continue
		}
		if resume.Set(working, f.Path, f.Text) {
			applied++
			evidenceByPath[f.Path] = f.EvidenceIDs
		}
	}

	if u.req.AllowSkillDeletions && len(u.draft.RemoveSkills) > 0 {
		working.Skills = removeSkills(working.Skills, u.draft.RemoveSkills)
	}
	return working, evidenceByPath, applied, reverted
}

func (u *documentUnit) withinLimits(estimate layout.PageEstimate) bool {
	limits := u.req.Document.Layout
	if limits.MaxResumePages > 0 && estimate.ResumePages > limits.MaxResumePages {
		return false
	}
	if limits.MaxCoverLetterPages > 0 && estimate.CoverLetterPages > limits.MaxCoverLetterPages {
		return false
	}
	return true
}

func removeSkills(skills []resume.Skill, names []string) []resume.Skill {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[normalizeText(n)] = true
	}
	out := make([]resume.Skill, 0, len(skills))
	for _, s := range skills {
		if drop[normalizeText(s.Name)] {
			continue
		}
		out = append(out, s)
	}
	return out
}
