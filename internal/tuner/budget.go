package tuner

// defaultResolutionCap is how many requirements a single candidate path may
// satisfy within one run, so no field absorbs every requirement.
const defaultResolutionCap = 2

// resolutionBudget counts resolutions per candidate path. It is confined to a
// single request's sequential control flow; there is no concurrent writer.
type resolutionBudget struct {
	cap  int
	used map[string]int
}

func newResolutionBudget(cap int) *resolutionBudget {
	if cap <= 0 {
		cap = defaultResolutionCap
	}
	return &resolutionBudget{cap: cap, used: make(map[string]int)}
}

func (b *resolutionBudget) available(path string) bool {
	return b.used[path] < b.cap
}

func (b *resolutionBudget) consume(path string) {
	b.used[path]++
}

// eligible filters candidates that still have budget left.
func (b *resolutionBudget) eligible(candidates []CandidateElement) []CandidateElement {
	out := make([]CandidateElement, 0, len(candidates))
	for _, c := range candidates {
		if b.available(c.Path) {
			out = append(out, c)
		}
	}
	return out
}
