package tuner

import (
	"tailor/internal/resume"
)

// CandidateElement is one document field eligible for editing, carrying its
// measured per-field length budget. Derived fresh per request; never persisted.
type CandidateElement struct {
	Path            string `json:"path"`
	Text            string `json:"text"`
	MaxLines        int    `json:"maxLines"`
	MaxCharsPerLine int    `json:"maxCharsPerLine"`
	MaxCharsTotal   int    `json:"maxCharsTotal"`
	WordCount       int    `json:"wordCount"`
}

// BuildCandidates lists the editable fields of the document's visible
// sections, in the document's fixed walk order. The order defines tie-break
// precedence: the earliest candidate that resolves a requirement wins.
// Paths without a measured profile are dropped silently; an unmeasured field
// has no enforceable budget and is simply not offered for editing.
func BuildCandidates(doc *resume.Document, profiles map[string]resume.FieldProfile) []CandidateElement {
	out := make([]CandidateElement, 0, len(profiles))
	for _, path := range resume.EditablePaths(doc) {
		if !sectionVisible(doc, resume.SectionOf(path)) {
			continue
		}
		profile, ok := profiles[path]
		if !ok {
			continue
		}
		text, ok := resume.Get(doc, path)
		if !ok {
			continue
		}
		out = append(out, CandidateElement{
			Path:            path,
			Text:            text,
			MaxLines:        profile.MaxLines,
			MaxCharsPerLine: profile.MaxCharsPerLine,
			MaxCharsTotal:   profile.MaxCharsTotal,
			WordCount:       profile.WordCount,
		})
	}
	return out
}

func sectionVisible(doc *resume.Document, section string) bool {
	vis := doc.SectionVisibility
	switch section {
	case "summary":
		return vis.Summary
	case "experience":
		return vis.Experience
	case "projects":
		return vis.Projects
	case "education":
		return vis.Education
	case "skills":
		return vis.Skills
	case "coverLetter":
		return vis.CoverLetter
	case "metadata":
		return true
	}
	return false
}

func findCandidate(candidates []CandidateElement, path string) (CandidateElement, bool) {
	for _, c := range candidates {
		if c.Path == path {
			return c, true
		}
	}
	return CandidateElement{}, false
}
