// Package report turns an accepted before/after document pair into a
// structural json-patch and human-reviewable diff entries.
package report

import (
	"fmt"
	"strings"

	"tailor/internal/layout"
	"tailor/internal/resume"
)

// PatchOp is one structural patch entry.
type PatchOp struct {
	Op    string `json:"op"` // replace | add | remove
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// DiffEntry describes one changed field for review.
type DiffEntry struct {
	Path                   string   `json:"path"`
	Before                 string   `json:"before"`
	After                  string   `json:"after"`
	Keywords               []string `json:"keywords,omitempty"`
	LineDelta              int      `json:"lineDelta"`
	Confidence             float64  `json:"confidence"`
	EvidenceLevel          string   `json:"evidenceLevel"`
	ManualApprovalRequired bool     `json:"manualApprovalRequired,omitempty"`
}

// Options steers diff construction.
type Options struct {
	// AllowSkillDeletions gates whether skill removals are emitted at all.
	AllowSkillDeletions bool
	// Keywords are job keywords; each diff entry reports which of them its
	// new text covers.
	Keywords []string
	// Profiles supplies per-field character budgets for line-delta
	// estimation.
	Profiles map[string]resume.FieldProfile
	// EvidenceByPath carries the claim ids each accepted field was grounded
	// on.
	EvidenceByPath map[string][]string
}

const fallbackCharsPerLine = 80

// Build walks the fixed set of field paths and emits a patch entry plus a diff
// entry for every path whose normalized text differs. Skill deletions are
// emitted only when the caller permits deletions, and always flagged for
// manual approval.
func Build(original, tuned *resume.Document, opts Options) ([]PatchOp, []DiffEntry) {
	patch := []PatchOp{}
	diffs := []DiffEntry{}

	emit := func(path, before, after string) {
		patch = append(patch, PatchOp{Op: "replace", Path: path, Value: after})
		diffs = append(diffs, diffEntry(path, before, after, opts))
	}

	for _, path := range textPaths(original) {
		before, ok := resume.Get(original, path)
		if !ok {
			continue
		}
		after, ok := resume.Get(tuned, path)
		if !ok {
			continue
		}
		if normalize(before) != normalize(after) {
			emit(path, before, after)
		}
	}

	patch, diffs = diffSkills(original, tuned, opts, patch, diffs)
	return patch, diffs
}

// textPaths is the fixed walk: metadata, per-index bullets, cover letter.
// Skills are handled separately because they match by name, not index.
func textPaths(doc *resume.Document) []string {
	paths := []string{"metadata.name", "metadata.subtitle", "metadata.summary"}
	for i, exp := range doc.Experience {
		for j := range exp.Bullets {
			paths = append(paths, fmt.Sprintf("experience[%d].bullets[%d]", i, j))
		}
	}
	for i, prj := range doc.Projects {
		for j := range prj.Bullets {
			paths = append(paths, fmt.Sprintf("projects[%d].bullets[%d]", i, j))
		}
	}
	paths = append(paths,
		"coverLetter.date",
		"coverLetter.hiringManager",
		"coverLetter.companyAddress",
		"coverLetter.body",
		"coverLetter.sendoff",
	)
	return paths
}

func diffSkills(original, tuned *resume.Document, opts Options, patch []PatchOp, diffs []DiffEntry) ([]PatchOp, []DiffEntry) {
	tunedByName := make(map[string]resume.Skill, len(tuned.Skills))
	for _, s := range tuned.Skills {
		tunedByName[normalize(s.Name)] = s
	}
	originalByName := make(map[string]bool, len(original.Skills))

	for i, s := range original.Skills {
		key := normalize(s.Name)
		originalByName[key] = true
		after, present := tunedByName[key]
		path := fmt.Sprintf("skills[%d].name", i)
		if !present {
			if !opts.AllowSkillDeletions {
				continue
			}
			patch = append(patch, PatchOp{Op: "remove", Path: path})
			entry := diffEntry(path, s.Name, "", opts)
			entry.ManualApprovalRequired = true
			diffs = append(diffs, entry)
			continue
		}
		if after.Category != s.Category {
			catPath := fmt.Sprintf("skills[%d].category", i)
			patch = append(patch, PatchOp{Op: "replace", Path: catPath, Value: after.Category})
			diffs = append(diffs, diffEntry(catPath, s.Category, after.Category, opts))
		}
	}

	for _, s := range tuned.Skills {
		if originalByName[normalize(s.Name)] {
			continue
		}
		path := fmt.Sprintf("skills[%d]", len(original.Skills))
		patch = append(patch, PatchOp{Op: "add", Path: path, Value: s})
		diffs = append(diffs, diffEntry(path, "", s.Name, opts))
	}
	return patch, diffs
}

func diffEntry(path, before, after string, opts Options) DiffEntry {
	charsPerLine := fallbackCharsPerLine
	if profile, ok := opts.Profiles[path]; ok && profile.MaxCharsPerLine > 0 {
		charsPerLine = profile.MaxCharsPerLine
	}
	lineDelta := layout.EstimateWrappedLines(after, charsPerLine) - layout.EstimateWrappedLines(before, charsPerLine)

	evidence := opts.EvidenceByPath[path]
	level, confidence := evidenceLevel(len(evidence))

	return DiffEntry{
		Path:          path,
		Before:        before,
		After:         after,
		Keywords:      coveredKeywords(after, opts.Keywords),
		LineDelta:     lineDelta,
		Confidence:    confidence,
		EvidenceLevel: level,
	}
}

func evidenceLevel(citations int) (string, float64) {
	switch {
	case citations >= 2:
		return "strong", 0.9
	case citations == 1:
		return "partial", 0.75
	default:
		return "none", 0.5
	}
}

func coveredKeywords(text string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	present := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	}) {
		present[tok] = true
	}
	var covered []string
	for _, kw := range keywords {
		if present[strings.ToLower(kw)] {
			covered = append(covered, kw)
		}
	}
	return covered
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
