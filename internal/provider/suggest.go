package provider

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a name can be from a registered
// one and still produce a "did you mean" suggestion.
const maxSuggestDistance = 3

// suggestName returns the registered source name closest to input, or
// empty when nothing is near enough.
func (m *Manager) suggestName(input string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	minDist := math.MaxInt
	var suggestion string

	for _, source := range m.sources {
		name := source.Describe().Name
		dist := levenshtein.ComputeDistance(input, name)
		if dist < minDist {
			minDist = dist
			suggestion = name
		}
	}

	if minDist > maxSuggestDistance {
		return ""
	}
	return suggestion
}
