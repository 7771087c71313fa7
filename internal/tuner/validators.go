package tuner

import (
	"fmt"
	"regexp"
	"strings"

	"tailor/internal/layout"
)

// Validation issue codes.
const (
	IssueEvidence   = "evidence_grounding"
	IssueVocabulary = "vocabulary"
	IssueNumeric    = "numeric_fact"
	IssueLength     = "length_fit"
)

// ValidationContext is the shared input to every validator: the original field
// text, the proposed replacement, and the budgets and allow-lists in force.
type ValidationContext struct {
	Source          string
	Candidate       string
	MaxLines        int
	MaxCharsPerLine int
	MaxCharsTotal   int
	EvidenceIDs     []string
	AllowedEvidence map[string]bool
	Allowlist       map[string]bool
}

// ValidationIssue is a value, not an error: the repair loops turn it into
// feedback text or a silent revert. WrappedLines and CharCount carry the
// measured constraint violation for length failures.
type ValidationIssue struct {
	Code            string
	WrappedLines    int
	CharCount       int
	InvalidEvidence []string
	Tokens          []string
	Detail          string
}

// Validator is one independent accept/reject predicate.
type Validator func(ValidationContext) *ValidationIssue

// runValidators applies validators in order and returns the first issue.
func runValidators(vc ValidationContext, validators ...Validator) *ValidationIssue {
	for _, v := range validators {
		if issue := v(vc); issue != nil {
			return issue
		}
	}
	return nil
}

// ValidateEvidence requires at least one declared claim identifier to be a
// member of the caller-supplied allowed set. Skipped when no allowed set is in
// force.
func ValidateEvidence(vc ValidationContext) *ValidationIssue {
	if vc.AllowedEvidence == nil {
		return nil
	}
	invalid := make([]string, 0, len(vc.EvidenceIDs))
	grounded := false
	for _, id := range vc.EvidenceIDs {
		if vc.AllowedEvidence[id] {
			grounded = true
		} else {
			invalid = append(invalid, id)
		}
	}
	if grounded {
		return nil
	}
	return &ValidationIssue{
		Code:            IssueEvidence,
		InvalidEvidence: invalid,
		Detail:          "no declared evidence id is in the allowed claim set",
	}
}

// ValidateVocabulary rejects replacements that introduce known tool or
// technology names absent from the allow-list built from the original
// document.
func ValidateVocabulary(vc ValidationContext) *ValidationIssue {
	if vc.Allowlist == nil {
		return nil
	}
	var offending []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(vc.Candidate) {
		if !techLexicon[tok] || vc.Allowlist[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		offending = append(offending, tok)
	}
	if len(offending) == 0 {
		return nil
	}
	return &ValidationIssue{
		Code:   IssueVocabulary,
		Tokens: offending,
		Detail: "introduces tools not present in the source document: " + strings.Join(offending, ", "),
	}
}

var numericTokenRe = regexp.MustCompile(`\d+(?:%|\+)?`)

// ValidateNumericFacts requires every numeric token of the source text (digits
// with an optional % or + suffix) to survive verbatim in the replacement.
func ValidateNumericFacts(vc ValidationContext) *ValidationIssue {
	for _, token := range numericTokenRe.FindAllString(vc.Source, -1) {
		if containsBoundedToken(vc.Candidate, token) {
			continue
		}
		return &ValidationIssue{
			Code:   IssueNumeric,
			Tokens: []string{token},
			Detail: fmt.Sprintf("numeric fact %q from the source text is missing", token),
		}
	}
	return nil
}

// containsBoundedToken reports a word-bounded occurrence of token: no digit
// directly abuts either side of the match.
func containsBoundedToken(text, token string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], token)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(token)
		beforeOK := start == 0 || !isDigit(text[start-1])
		afterOK := end == len(text) || !isDigit(text[end])
		if beforeOK && afterOK {
			return true
		}
		from = start + 1
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateLengthFit enforces the field's measured layout budget and returns
// the exact measured numbers on violation so repair feedback can name them.
func ValidateLengthFit(vc ValidationContext) *ValidationIssue {
	wrapped := layout.EstimateWrappedLines(vc.Candidate, vc.MaxCharsPerLine)
	chars := len(vc.Candidate)
	overLines := vc.MaxLines > 0 && wrapped > vc.MaxLines
	overChars := vc.MaxCharsTotal > 0 && chars > vc.MaxCharsTotal
	if !overLines && !overChars {
		return nil
	}
	return &ValidationIssue{
		Code:         IssueLength,
		WrappedLines: wrapped,
		CharCount:    chars,
		Detail: fmt.Sprintf("replacement wraps to %d lines (%d chars); field allows %d lines and %d chars",
			wrapped, chars, vc.MaxLines, vc.MaxCharsTotal),
	}
}
