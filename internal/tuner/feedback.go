package tuner

import (
	"fmt"
	"strings"
)

// Feedback builders turn validator issues into the corrective text injected
// into the next attempt's prompt. The generator sees exact measured numbers,
// never vague complaints.

func structuralFeedback(detail string) string {
	return "Your previous response was structurally invalid: " + detail + "."
}

func repairFeedback(issue *ValidationIssue) string {
	switch issue.Code {
	case IssueLength:
		return fmt.Sprintf(
			"Your previous replacement was too long: it wraps to %d lines and has %d characters. Shorten it until it fits the field's stated budget.",
			issue.WrappedLines, issue.CharCount)
	case IssueVocabulary:
		return fmt.Sprintf(
			"Your previous replacement introduced tools the candidate never claimed: %s. Use only technologies already present in the document.",
			strings.Join(issue.Tokens, ", "))
	case IssueNumeric:
		return fmt.Sprintf(
			"Your previous replacement dropped the numeric fact %s from the original text. Keep every number exactly as written.",
			strings.Join(issue.Tokens, ", "))
	case IssueEvidence:
		return invalidEvidenceFeedback(issue.InvalidEvidence)
	}
	return "Your previous response failed validation: " + issue.Detail + "."
}

func invalidEvidenceFeedback(ids []string) string {
	if len(ids) == 0 {
		return "Your previous draft cited no valid claim ids. Ground every field in ids from the allowed claim list."
	}
	return fmt.Sprintf(
		"Your previous draft cited claim ids that are not in the allowed list: %s. Use only ids from the allowed claim list.",
		strings.Join(ids, ", "))
}

func pageOverageFeedback(resumePages, maxResumePages, letterPages, maxLetterPages int) string {
	var sb strings.Builder
	sb.WriteString("Your previous draft did not fit the page limits:")
	if maxResumePages > 0 && resumePages > maxResumePages {
		fmt.Fprintf(&sb, " the resume estimates %d pages but must fit %d;", resumePages, maxResumePages)
	}
	if maxLetterPages > 0 && letterPages > maxLetterPages {
		fmt.Fprintf(&sb, " the cover letter estimates %d pages but must fit %d;", letterPages, maxLetterPages)
	}
	sb.WriteString(" tighten the longest fields.")
	return sb.String()
}
