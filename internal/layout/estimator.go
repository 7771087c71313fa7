// Package layout estimates how document text lays out on the page: wrapped
// line counts per field and whole-document page counts. Everything here is
// deterministic and allocation-light so the repair loops can call it on every
// attempt without I/O.
package layout

import (
	"strings"

	"tailor/internal/resume"
)

// Page geometry in points for US Letter with the renderer's default margins.
const (
	pageHeightPt    = 792.0
	pageMarginPt    = 54.0
	usableHeightPt  = pageHeightPt - 2*pageMarginPt
	contentWidthPt  = 504.0
	headingHeightPt = 22.0
)

const avgCharWidthRatio = 0.52

// EstimateWrappedLines simulates greedy word wrap: words accumulate onto a
// line while the line stays within maxCharsPerLine, otherwise a new line
// starts. A single word longer than the limit still occupies one line.
func EstimateWrappedLines(text string, maxCharsPerLine int) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	if maxCharsPerLine <= 0 {
		return len(words)
	}
	lines := 1
	lineLen := 0
	for _, w := range words {
		if lineLen == 0 {
			lineLen = len(w)
			continue
		}
		if lineLen+1+len(w) <= maxCharsPerLine {
			lineLen += 1 + len(w)
			continue
		}
		lines++
		lineLen = len(w)
	}
	return lines
}

// PageEstimate is the estimator's page-count verdict for one document state.
type PageEstimate struct {
	ResumePages      int `json:"resumePages"`
	CoverLetterPages int `json:"coverLetterPages"`
}

// Combined returns the total page count, used to rank best-effort attempts.
func (p PageEstimate) Combined() int {
	return p.ResumePages + p.CoverLetterPages
}

// EstimatePages sums per-section estimated line counts, converts them to point
// heights using the document's font preferences, and divides by the usable
// page height. Results round up and never fall below one page per rendered
// document.
func EstimatePages(doc *resume.Document) PageEstimate {
	font := doc.Layout.FontSizePt
	if font <= 0 {
		font = 10.5
	}
	lineHeight := doc.Layout.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1.25
	}
	linePt := font * lineHeight
	charsPerLine := int(contentWidthPt / (font * avgCharWidthRatio))

	resumePt := headerHeightPt(doc, charsPerLine, linePt)
	vis := doc.SectionVisibility
	if vis.Experience {
		resumePt += headingHeightPt
		for _, exp := range doc.Experience {
			resumePt += 2 * linePt // company and title lines
			for _, b := range exp.Bullets {
				resumePt += float64(EstimateWrappedLines(b, charsPerLine)) * linePt
			}
		}
	}
	if vis.Projects {
		resumePt += headingHeightPt
		for _, prj := range doc.Projects {
			resumePt += linePt
			for _, b := range prj.Bullets {
				resumePt += float64(EstimateWrappedLines(b, charsPerLine)) * linePt
			}
		}
	}
	if vis.Education {
		resumePt += headingHeightPt
		resumePt += float64(len(doc.Education)) * 2 * linePt
	}
	if vis.Skills {
		resumePt += headingHeightPt
		// Skills render as comma-joined lines grouped by category.
		var joined strings.Builder
		for i, s := range doc.Skills {
			if i > 0 {
				joined.WriteString(", ")
			}
			joined.WriteString(s.Name)
		}
		resumePt += float64(EstimateWrappedLines(joined.String(), charsPerLine)) * linePt
	}

	est := PageEstimate{ResumePages: pagesFor(resumePt)}

	if vis.CoverLetter {
		letterPt := 4 * linePt // date, greeting, address, sendoff scaffolding
		for _, para := range strings.Split(doc.CoverLetter.Body, "\n") {
			letterPt += float64(EstimateWrappedLines(para, charsPerLine)) * linePt
		}
		est.CoverLetterPages = pagesFor(letterPt)
	}
	return est
}

// CharsPerLine exposes the width heuristic so callers can budget individual
// fields consistently with page estimation.
func CharsPerLine(font float64) int {
	if font <= 0 {
		font = 10.5
	}
	return int(contentWidthPt / (font * avgCharWidthRatio))
}

func headerHeightPt(doc *resume.Document, charsPerLine int, linePt float64) float64 {
	pt := 2 * linePt // name and contact lines
	if doc.Metadata.Subtitle != "" {
		pt += linePt
	}
	if doc.SectionVisibility.Summary {
		pt += float64(EstimateWrappedLines(doc.Metadata.Summary, charsPerLine)) * linePt
	}
	return pt
}

func pagesFor(heightPt float64) int {
	if heightPt <= 0 {
		return 1
	}
	pages := int(heightPt / usableHeightPt)
	if heightPt > float64(pages)*usableHeightPt {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}
