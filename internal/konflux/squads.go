package konflux

import (
	"path"
	"sort"
	"strings"
)

const unassignedSquadNameConstant = "unassigned"

// UnassignedSquadName labels components that no squad glob claims.
const UnassignedSquadName = unassignedSquadNameConstant

// SquadRoster maps squad names to component-name globs and answers ownership queries.
type SquadRoster struct {
	globsBySquad map[string][]string
	squadNames   []string
}

// NewSquadRoster builds a roster from configuration. Squad names are matched
// case-insensitively; globs follow path.Match syntax.
func NewSquadRoster(globsBySquad map[string][]string) *SquadRoster {
	normalizedGlobs := make(map[string][]string, len(globsBySquad))
	squadNames := make([]string, 0, len(globsBySquad))
	for squadName, componentGlobs := range globsBySquad {
		normalizedName := strings.ToLower(strings.TrimSpace(squadName))
		if len(normalizedName) == 0 {
			continue
		}
		normalizedGlobs[normalizedName] = append([]string{}, componentGlobs...)
		squadNames = append(squadNames, normalizedName)
	}
	sort.Strings(squadNames)
	return &SquadRoster{globsBySquad: normalizedGlobs, squadNames: squadNames}
}

// SquadForComponent returns the owning squad for a component name, or
// UnassignedSquadName when no glob claims it. The first matching squad in
// sorted name order wins so ownership stays deterministic.
func (roster *SquadRoster) SquadForComponent(componentName string) string {
	for _, squadName := range roster.squadNames {
		for _, componentGlob := range roster.globsBySquad[squadName] {
			if globMatches(componentGlob, componentName) {
				return squadName
			}
		}
	}
	return UnassignedSquadName
}

// OwnedByComponentFilter reports whether the component belongs to the
// requested squad. An empty squad selection admits every component.
func (roster *SquadRoster) OwnedByComponentFilter(requestedSquad string, componentName string) bool {
	trimmedSquad := strings.ToLower(strings.TrimSpace(requestedSquad))
	if len(trimmedSquad) == 0 {
		return true
	}
	return roster.SquadForComponent(componentName) == trimmedSquad
}

func globMatches(componentGlob string, componentName string) bool {
	matched, matchError := path.Match(componentGlob, componentName)
	if matchError != nil {
		return false
	}
	return matched
}
