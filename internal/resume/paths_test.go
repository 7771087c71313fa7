package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathsTestDocument() *Document {
	return &Document{
		Metadata: Metadata{Name: "Ada Lovelace", Summary: "Engineer and researcher."},
		Experience: []Experience{
			{Company: "Engines Ltd", Title: "Engineer", Bullets: []string{"Built the first compiler.", "Cut run time 40%."}},
		},
		Projects: []Project{
			{Name: "Notes", Bullets: []string{"Published translation with commentary."}},
		},
		Skills:      []Skill{{Name: "Mathematics", Category: "Core"}},
		CoverLetter: CoverLetter{Body: "Dear team,"},
	}
}

func TestGetAndSetRoundtrip(t *testing.T) {
	doc := pathsTestDocument()

	text, ok := Get(doc, "experience[0].bullets[1]")
	require.True(t, ok)
	assert.Equal(t, "Cut run time 40%.", text)

	require.True(t, Set(doc, "experience[0].bullets[1]", "Cut run time 40% across builds."))
	text, ok = Get(doc, "experience[0].bullets[1]")
	require.True(t, ok)
	assert.Equal(t, "Cut run time 40% across builds.", text)

	text, ok = Get(doc, "metadata.summary")
	require.True(t, ok)
	assert.Equal(t, "Engineer and researcher.", text)

	text, ok = Get(doc, "skills[0].name")
	require.True(t, ok)
	assert.Equal(t, "Mathematics", text)
}

func TestGetRejectsUnknownPaths(t *testing.T) {
	doc := pathsTestDocument()

	for _, path := range []string{
		"experience[5].bullets[0]",
		"experience[0].bullets[9]",
		"metadata.age",
		"skills[0]",
		"experience[-1].bullets[0]",
		"experience[0].bullets[x]",
		"",
		"coverLetter.body.extra",
	} {
		_, ok := Get(doc, path)
		assert.False(t, ok, "path %q should not resolve", path)
	}
}

func TestSetUnknownPathDoesNotMutate(t *testing.T) {
	doc := pathsTestDocument()
	assert.False(t, Set(doc, "experience[9].bullets[0]", "nope"))
	assert.Equal(t, "Built the first compiler.", doc.Experience[0].Bullets[0])
}

func TestEditablePathsOrderIsStable(t *testing.T) {
	doc := pathsTestDocument()
	paths := EditablePaths(doc)
	assert.Equal(t, []string{
		"metadata.summary",
		"experience[0].bullets[0]",
		"experience[0].bullets[1]",
		"projects[0].bullets[0]",
		"skills[0].name",
		"coverLetter.body",
	}, paths)
}

func TestSectionOf(t *testing.T) {
	assert.Equal(t, "summary", SectionOf("metadata.summary"))
	assert.Equal(t, "metadata", SectionOf("metadata.name"))
	assert.Equal(t, "experience", SectionOf("experience[2].bullets[0]"))
	assert.Equal(t, "skills", SectionOf("skills[3].name"))
	assert.Equal(t, "coverLetter", SectionOf("coverLetter.body"))
	assert.Equal(t, "", SectionOf("unknown.path"))
}

func TestCloneIsDeep(t *testing.T) {
	doc := pathsTestDocument()
	clone := doc.Clone()
	require.True(t, Set(clone, "experience[0].bullets[0]", "changed"))
	clone.Skills[0].Name = "Changed"

	assert.Equal(t, "Built the first compiler.", doc.Experience[0].Bullets[0])
	assert.Equal(t, "Mathematics", doc.Skills[0].Name)
}
