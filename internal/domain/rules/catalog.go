package rules

import (
	"sort"

	"github.com/nictjader/siren-backend/internal/domain/model"
)

// AssembleCatalog collapses a flat, genre-filtered story list into the list
// shown on the catalog page: one representative entry per series plus every
// standalone story, ordered by publication timestamp descending.
//
// Part 1 of a series always wins as the representative whenever it is present
// in the input, regardless of processing order. Among multiple part-1 entries
// for the same series the one with the later publication timestamp is kept
// (ties keep the earlier-seen entry). A non-first part only stands in while no
// entry exists for its series yet. A story with a broken series linkage
// (series id without part number, or the reverse) is treated as standalone.
//
// Pure and idempotent: re-applying it to its own output changes nothing.
func AssembleCatalog(stories []model.Story) []model.Story {
	representatives := make(map[string]model.Story, len(stories))

	for _, story := range stories {
		if !story.InSeries() {
			representatives[story.ID] = story
			continue
		}

		key := *story.SeriesID
		existing, seen := representatives[key]

		if story.IsFirstPart() {
			if seen && existing.IsFirstPart() && !story.PublishedAt.After(existing.PublishedAt) {
				continue
			}
			representatives[key] = story
			continue
		}

		if !seen {
			representatives[key] = story
		}
	}

	out := make([]model.Story, 0, len(representatives))
	for _, story := range representatives {
		out = append(out, story)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	return out
}
