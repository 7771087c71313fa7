package tuner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLengthFit_ReportsMeasuredViolation(t *testing.T) {
	// 85 chars wrapping to 3 lines at width 40, against a 2-line, 78-char
	// budget.
	replacement := strings.Repeat("a", 30) + " " + strings.Repeat("b", 30) + " " + strings.Repeat("c", 23)
	require.Len(t, replacement, 85)

	issue := ValidateLengthFit(ValidationContext{
		Candidate:       replacement,
		MaxLines:        2,
		MaxCharsPerLine: 40,
		MaxCharsTotal:   78,
	})
	require.NotNil(t, issue)
	assert.Equal(t, IssueLength, issue.Code)
	assert.Equal(t, 3, issue.WrappedLines)
	assert.Equal(t, 85, issue.CharCount)

	feedback := repairFeedback(issue)
	assert.Contains(t, feedback, "3 lines")
	assert.Contains(t, feedback, "85 characters")
}

func TestValidateLengthFit_AcceptsWithinBudget(t *testing.T) {
	issue := ValidateLengthFit(ValidationContext{
		Candidate:       "Led migration of billing services.",
		MaxLines:        2,
		MaxCharsPerLine: 40,
		MaxCharsTotal:   78,
	})
	assert.Nil(t, issue)
}

func TestValidateNumericFacts_RequiresVerbatimNumbers(t *testing.T) {
	vc := ValidationContext{
		Source:    "Cut latency 40% across 12 services",
		Candidate: "Reduced latency by a large margin across services",
	}
	issue := ValidateNumericFacts(vc)
	require.NotNil(t, issue)
	assert.Equal(t, IssueNumeric, issue.Code)
	assert.Equal(t, []string{"40%"}, issue.Tokens)

	vc.Candidate = "Cut latency 40% across 12 microservices"
	assert.Nil(t, ValidateNumericFacts(vc))
}

func TestValidateNumericFacts_WordBounded(t *testing.T) {
	// "40" embedded in "400" does not preserve the fact.
	issue := ValidateNumericFacts(ValidationContext{
		Source:    "Handled 40 requests",
		Candidate: "Handled 400 requests",
	})
	require.NotNil(t, issue)
	assert.Equal(t, []string{"40"}, issue.Tokens)

	assert.Nil(t, ValidateNumericFacts(ValidationContext{
		Source:    "Grew revenue 30+",
		Candidate: "Grew revenue 30+ quarter over quarter",
	}))
}

func TestValidateVocabulary_RejectsUnclaimedTools(t *testing.T) {
	allow := map[string]bool{"python": true, "led": true, "migration": true}
	issue := ValidateVocabulary(ValidationContext{
		Candidate: "Led Kubernetes and Terraform migration",
		Allowlist: allow,
	})
	require.NotNil(t, issue)
	assert.Equal(t, IssueVocabulary, issue.Code)
	assert.Equal(t, []string{"kubernetes", "terraform"}, issue.Tokens)

	assert.Nil(t, ValidateVocabulary(ValidationContext{
		Candidate: "Led Python migration",
		Allowlist: allow,
	}))
}

func TestValidateVocabulary_SkippedWithoutAllowlist(t *testing.T) {
	assert.Nil(t, ValidateVocabulary(ValidationContext{Candidate: "Kubernetes everywhere"}))
}

func TestValidateEvidence(t *testing.T) {
	allowed := map[string]bool{"c1": true, "c2": true}

	issue := ValidateEvidence(ValidationContext{EvidenceIDs: []string{"c9"}, AllowedEvidence: allowed})
	require.NotNil(t, issue)
	assert.Equal(t, IssueEvidence, issue.Code)
	assert.Equal(t, []string{"c9"}, issue.InvalidEvidence)

	issue = ValidateEvidence(ValidationContext{AllowedEvidence: allowed})
	require.NotNil(t, issue, "a field citing nothing is not grounded")

	assert.Nil(t, ValidateEvidence(ValidationContext{EvidenceIDs: []string{"c9", "c1"}, AllowedEvidence: allowed}),
		"one valid citation grounds the field")
	assert.Nil(t, ValidateEvidence(ValidationContext{EvidenceIDs: []string{"c9"}}),
		"skipped when no allowed set is in force")
}

func TestRunValidatorsReturnsFirstIssue(t *testing.T) {
	vc := ValidationContext{
		Source:          "Cut costs 15%",
		Candidate:       strings.Repeat("Kubernetes everywhere ", 20),
		MaxLines:        1,
		MaxCharsPerLine: 40,
		MaxCharsTotal:   60,
		Allowlist:       map[string]bool{"cut": true, "costs": true},
	}
	issue := runValidators(vc, ValidateVocabulary, ValidateNumericFacts, ValidateLengthFit)
	require.NotNil(t, issue)
	assert.Equal(t, IssueVocabulary, issue.Code)
}
