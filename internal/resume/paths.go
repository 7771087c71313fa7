package resume

import (
	"fmt"
	"strconv"
	"strings"
)

// Field paths use bracket-index notation, e.g. "experience[2].bullets[0]",
// "skills[3].name", "metadata.summary". A path addresses exactly one editable
// string field.

type pathSegment struct {
	name  string
	index int // -1 when the segment carries no index
}

func parsePath(path string) ([]pathSegment, error) {
	parts := strings.Split(path, ".")
	segs := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		seg := pathSegment{index: -1}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("malformed path segment %q", part)
			}
			idx, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("malformed index in path segment %q", part)
			}
			seg.name = part[:i]
			seg.index = idx
		} else {
			seg.name = part
		}
		if seg.name == "" {
			return nil, fmt.Errorf("empty path segment in %q", path)
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	return segs, nil
}

// Get resolves a field path against the document and returns its current text.
// The second result is false when the path does not address a known field.
func Get(doc *Document, path string) (string, bool) {
	ptr, ok := fieldPointer(doc, path)
	if !ok {
		return "", false
	}
	return *ptr, true
}

// Set writes a field addressed by path. It returns false without mutating
// anything when the path does not address a known field.
func Set(doc *Document, path, value string) bool {
	ptr, ok := fieldPointer(doc, path)
	if !ok {
		return false
	}
	*ptr = value
	return true
}

func fieldPointer(doc *Document, path string) (*string, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	switch segs[0].name {
	case "metadata":
		if len(segs) != 2 || segs[0].index >= 0 {
			return nil, false
		}
		switch segs[1].name {
		case "name":
			return &doc.Metadata.Name, true
		case "subtitle":
			return &doc.Metadata.Subtitle, true
		case "summary":
			return &doc.Metadata.Summary, true
		}
	case "experience":
		if len(segs) != 2 || segs[0].index < 0 || segs[0].index >= len(doc.Experience) {
			return nil, false
		}
		exp := &doc.Experience[segs[0].index]
		if segs[1].name == "bullets" && segs[1].index >= 0 && segs[1].index < len(exp.Bullets) {
			return &exp.Bullets[segs[1].index], true
		}
	case "projects":
		if len(segs) != 2 || segs[0].index < 0 || segs[0].index >= len(doc.Projects) {
			return nil, false
		}
		prj := &doc.Projects[segs[0].index]
		if segs[1].name == "bullets" && segs[1].index >= 0 && segs[1].index < len(prj.Bullets) {
			return &prj.Bullets[segs[1].index], true
		}
	case "skills":
		if len(segs) != 2 || segs[0].index < 0 || segs[0].index >= len(doc.Skills) {
			return nil, false
		}
		sk := &doc.Skills[segs[0].index]
		switch segs[1].name {
		case "name":
			return &sk.Name, true
		case "category":
			return &sk.Category, true
		}
	case "coverLetter":
		if len(segs) != 2 || segs[0].index >= 0 {
			return nil, false
		}
		switch segs[1].name {
		case "date":
			return &doc.CoverLetter.Date, true
		case "hiringManager":
			return &doc.CoverLetter.HiringManager, true
		case "companyAddress":
			return &doc.CoverLetter.CompanyAddress, true
		case "body":
			return &doc.CoverLetter.Body, true
		case "sendoff":
			return &doc.CoverLetter.Sendoff, true
		}
	}
	return nil, false
}

// SectionOf reports which section a field path belongs to, for visibility
// filtering. Unknown paths map to the empty string.
func SectionOf(path string) string {
	root := path
	if i := strings.IndexAny(path, ".["); i >= 0 {
		root = path[:i]
	}
	switch root {
	case "metadata":
		if strings.HasSuffix(path, ".summary") {
			return "summary"
		}
		return "metadata"
	case "experience", "projects", "education", "skills", "coverLetter":
		return root
	}
	return ""
}

// EditablePaths lists the document's editable field paths in their fixed walk
// order. The order is meaningful downstream: the candidate index and the diff
// builder both iterate paths in exactly this sequence.
func EditablePaths(doc *Document) []string {
	paths := []string{"metadata.summary"}
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
	for i := range doc.Skills {
		paths = append(paths, fmt.Sprintf("skills[%d].name", i))
	}
	paths = append(paths, "coverLetter.body")
	return paths
}
