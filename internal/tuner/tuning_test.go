package tuner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor/internal/llm"
)

func tuneRequest() TuneRequest {
	doc := candidatesTestDocument()
	profiles := candidatesTestProfiles()
	// Generous budgets so page estimation, not field fit, decides attempts.
	for path, p := range profiles {
		p.MaxLines = 1000
		p.MaxCharsPerLine = 92
		p.MaxCharsTotal = 40000
		profiles[path] = p
	}
	return TuneRequest{
		Document: doc,
		Profiles: profiles,
		JobText:  "Looking for a compiler engineer. Python experience required.",
		Claims: map[string]string{
			"c1": "Built the first compiler at Engines Ltd.",
			"c2": "Cut run time 40% across builds.",
		},
	}
}

// hugeText wraps to well over one page at the default font metrics.
func hugeText() string {
	return strings.TrimSpace(strings.Repeat("shipped compiler passes and tuned translation pipelines for production builds ", 120))
}

func TestTune_AcceptsFirstFittingAttempt(t *testing.T) {
	client := &scriptedClient{drafts: []any{
		&llm.DocumentDraft{Fields: []llm.FieldDraft{
			{Path: "experience[0].bullets[0]", Text: hugeText(), EvidenceIDs: []string{"c1"}},
		}},
		&llm.DocumentDraft{Fields: []llm.FieldDraft{
			{Path: "experience[0].bullets[0]", Text: "Built the first production compiler.", EvidenceIDs: []string{"c1"}},
		}},
	}}

	result, err := NewTuner(client).Tune(context.Background(), tuneRequest())
	require.NoError(t, err)

	assert.True(t, result.Estimation.WithinLimit)
	assert.Empty(t, result.FitError)
	assert.Equal(t, 1, result.Estimation.ResumePages)
	assert.Equal(t, "Built the first production compiler.", result.OptimizedResume.Experience[0].Bullets[0])
	require.Len(t, result.Raw.Attempts, 2, "loop stops at the first fitting attempt")
	assert.False(t, result.Raw.Attempts[0].WithinLimit)
	assert.True(t, result.Raw.Attempts[1].WithinLimit)
	assert.Contains(t, client.prompts[1], "did not fit the page limits")
}

func TestTune_InvalidEvidenceIDsAreFedBackVerbatim(t *testing.T) {
	client := &scriptedClient{drafts: []any{
		&llm.DocumentDraft{Fields: []llm.FieldDraft{
			{Path: "experience[0].bullets[0]", Text: "Built compilers.", EvidenceIDs: []string{"c9", "c8"}},
		}},
		&llm.DocumentDraft{Fields: []llm.FieldDraft{
			{Path: "experience[0].bullets[0]", Text: "Built the first production compiler.", EvidenceIDs: []string{"c1"}},
		}},
	}}

	result, err := NewTuner(client).Tune(context.Background(), tuneRequest())
	require.NoError(t, err)

	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], "c9")
	assert.Contains(t, client.prompts[1], "c8")
	require.Len(t, result.Raw.Attempts, 2)
	assert.Equal(t, []string{"c9", "c8"}, result.Raw.Attempts[0].InvalidEvidenceIDs)
	assert.Equal(t, 0, result.Raw.Attempts[0].Applied, "nothing is applied on an invalid-evidence attempt")
}

func TestTune_FailingFieldsRevertSilently(t *testing.T) {
	req := tuneRequest()
	client := &scriptedClient{drafts: []any{
		&llm.DocumentDraft{Fields: []llm.FieldDraft{
			// Drops the 40% fact: reverted, not fatal.
			{Path: "experience[0].bullets[1]", Text: "Cut run time substantially across builds.", EvidenceIDs: []string{"c2"}},
			// Valid edit.
			{Path: "experience[0].bullets[0]", Text: "Built the first production compiler.", EvidenceIDs: []string{"c1"}},
		}},
	}}

	result, err := NewTuner(client).Tune(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Cut run time 40% across builds.", result.OptimizedResume.Experience[0].Bullets[1])
	assert.Equal(t, "Built the first production compiler.", result.OptimizedResume.Experience[0].Bullets[0])
	require.Len(t, result.Raw.Attempts, 1)
	assert.Equal(t, 1, result.Raw.Attempts[0].Applied)
	assert.Equal(t, 1, result.Raw.Attempts[0].Reverted)
}

func TestTune_BestEffortFallbackWhenNothingFits(t *testing.T) {
	twoPages := hugeText()
	threePages := strings.Repeat(hugeText()+" ", 2)
	client := &scriptedClient{drafts: []any{
		&llm.DocumentDraft{Fields: []llm.FieldDraft{{Path: "experience[0].bullets[0]", Text: threePages, EvidenceIDs: []string{"c1"}}}},
		&llm.DocumentDraft{Fields: []llm.FieldDraft{{Path: "experience[0].bullets[0]", Text: twoPages, EvidenceIDs: []string{"c1"}}}},
		&llm.DocumentDraft{Fields: []llm.FieldDraft{{Path: "experience[0].bullets[0]", Text: threePages, EvidenceIDs: []string{"c1"}}}},
		&llm.DocumentDraft{Fields: []llm.FieldDraft{{Path: "experience[0].bullets[0]", Text: threePages, EvidenceIDs: []string{"c1"}}}},
	}}

	result, err := NewTuner(client).Tune(context.Background(), tuneRequest())
	require.NoError(t, err)

	assert.False(t, result.Estimation.WithinLimit)
	assert.NotEmpty(t, result.FitError)
	require.Len(t, result.Raw.Attempts, 4, "all attempts are spent before falling back")
	assert.Equal(t, twoPages, result.OptimizedResume.Experience[0].Bullets[0],
		"the lowest combined page count is the retained fallback")
}

func TestTune_TransientExhaustionIsRetryableError(t *testing.T) {
	transient := &llm.CallError{Retryable: true, Message: "gateway busy"}
	client := &scriptedClient{drafts: []any{transient, transient, transient, transient}}

	_, err := NewTuner(client).Tune(context.Background(), tuneRequest())
	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
}

func TestTune_PermanentErrorPropagates(t *testing.T) {
	client := &scriptedClient{drafts: []any{&llm.SchemaError{Detail: "not json"}}}
	_, err := NewTuner(client).Tune(context.Background(), tuneRequest())
	require.Error(t, err)
	assert.False(t, llm.IsTransient(err))
}

func TestTune_SkillDeletionsOnlyWhenPermitted(t *testing.T) {
	draft := func() *llm.DocumentDraft {
		return &llm.DocumentDraft{
			Fields:       []llm.FieldDraft{{Path: "experience[0].bullets[0]", Text: "Built the first production compiler.", EvidenceIDs: []string{"c1"}}},
			RemoveSkills: []string{"Python"},
		}
	}

	req := tuneRequest()
	client := &scriptedClient{drafts: []any{draft()}}
	result, err := NewTuner(client).Tune(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.OptimizedResume.Skills, 1, "deletions are ignored unless permitted")

	req = tuneRequest()
	req.AllowSkillDeletions = true
	client = &scriptedClient{drafts: []any{draft()}}
	result, err = NewTuner(client).Tune(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.OptimizedResume.Skills)

	var removal bool
	for _, d := range result.Diffs {
		if d.ManualApprovalRequired {
			removal = true
		}
	}
	assert.True(t, removal, "skill deletions always require manual approval")
}

func TestTune_EchoesScrapeWarning(t *testing.T) {
	req := tuneRequest()
	req.ScrapeWarning = "job posting was truncated during cleanup"
	client := &scriptedClient{drafts: []any{
		&llm.DocumentDraft{Fields: []llm.FieldDraft{{Path: "experience[0].bullets[0]", Text: "Built the first production compiler.", EvidenceIDs: []string{"c1"}}}},
	}}
	result, err := NewTuner(client).Tune(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.ScrapeWarning, result.ScrapeWarning)
}
