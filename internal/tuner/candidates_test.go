package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor/internal/resume"
)

func candidatesTestDocument() *resume.Document {
	return &resume.Document{
		Metadata: resume.Metadata{Name: "Ada Lovelace", Summary: "Engineer working on compilers."},
		Experience: []resume.Experience{
			{Company: "Engines Ltd", Title: "Engineer", Bullets: []string{
				"Built the first compiler.",
				"Cut run time 40% across builds.",
			}},
		},
		Projects: []resume.Project{
			{Name: "Notes", Bullets: []string{"Published translation with commentary."}},
		},
		Skills: []resume.Skill{{Name: "Python", Category: "Languages"}},
		SectionVisibility: resume.SectionVisibility{
			Summary:    true,
			Experience: true,
			Projects:   true,
			Skills:     true,
		},
		Layout: resume.LayoutPrefs{FontSizePt: 10.5, LineHeight: 1.25, MaxResumePages: 1},
	}
}

func candidatesTestProfiles() map[string]resume.FieldProfile {
	profile := resume.FieldProfile{MaxLines: 2, MaxCharsPerLine: 90, MaxCharsTotal: 180}
	return map[string]resume.FieldProfile{
		"metadata.summary":         profile,
		"experience[0].bullets[0]": profile,
		"experience[0].bullets[1]": profile,
		"projects[0].bullets[0]":   profile,
	}
}

func TestBuildCandidates_OrderFollowsDocumentWalk(t *testing.T) {
	doc := candidatesTestDocument()
	candidates := BuildCandidates(doc, candidatesTestProfiles())

	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{
		"metadata.summary",
		"experience[0].bullets[0]",
		"experience[0].bullets[1]",
		"projects[0].bullets[0]",
	}, paths)
}

func TestBuildCandidates_SkipsHiddenSections(t *testing.T) {
	doc := candidatesTestDocument()
	doc.SectionVisibility.Projects = false
	candidates := BuildCandidates(doc, candidatesTestProfiles())
	for _, c := range candidates {
		assert.NotContains(t, c.Path, "projects")
	}
}

func TestBuildCandidates_DropsUnmeasuredPathsSilently(t *testing.T) {
	doc := candidatesTestDocument()
	profiles := map[string]resume.FieldProfile{
		"experience[0].bullets[0]": {MaxLines: 2, MaxCharsPerLine: 90, MaxCharsTotal: 180},
		"experience[7].bullets[0]": {MaxLines: 2, MaxCharsPerLine: 90, MaxCharsTotal: 180},
	}
	candidates := BuildCandidates(doc, profiles)
	require.Len(t, candidates, 1)
	assert.Equal(t, "experience[0].bullets[0]", candidates[0].Path)
	assert.Equal(t, "Built the first compiler.", candidates[0].Text)
	assert.Equal(t, 2, candidates[0].MaxLines)
}

func TestResolutionBudgetCapsPathReuse(t *testing.T) {
	budget := newResolutionBudget(0)
	assert.True(t, budget.available("experience[0].bullets[0]"))
	budget.consume("experience[0].bullets[0]")
	assert.True(t, budget.available("experience[0].bullets[0]"))
	budget.consume("experience[0].bullets[0]")
	assert.False(t, budget.available("experience[0].bullets[0]"), "default cap is two resolutions per path")

	eligible := budget.eligible([]CandidateElement{
		{Path: "experience[0].bullets[0]"},
		{Path: "experience[0].bullets[1]"},
	})
	require.Len(t, eligible, 1)
	assert.Equal(t, "experience[0].bullets[1]", eligible[0].Path)
}

func TestExtractKeywordHints(t *testing.T) {
	job := "We use Kubernetes daily. Kubernetes and Terraform experience required; Python is a plus."
	hints := ExtractKeywordHints(job, 2)
	assert.Equal(t, []string{"kubernetes", "terraform"}, hints)
}

func TestBuildVocabularyAllowlist(t *testing.T) {
	doc := candidatesTestDocument()
	allow := BuildVocabularyAllowlist(doc, []string{"Terraform"})
	assert.True(t, allow["python"], "skills are part of the allow-list")
	assert.True(t, allow["compiler"])
	assert.True(t, allow["terraform"], "explicit permissions are honored")
	assert.False(t, allow["kubernetes"])
}
