package rules

import (
	"testing"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/model"
)

func seriesStory(id, seriesID string, part int, publishedAt time.Time) model.Story {
	return model.Story{
		ID:          id,
		Title:       id,
		SeriesID:    &seriesID,
		PartNumber:  &part,
		PublishedAt: publishedAt,
	}
}

func standaloneStory(id string, publishedAt time.Time) model.Story {
	return model.Story{
		ID:          id,
		Title:       id,
		PublishedAt: publishedAt,
	}
}

func ids(stories []model.Story) []string {
	out := make([]string, 0, len(stories))
	for _, s := range stories {
		out = append(out, s.ID)
	}
	return out
}

func assertIDs(t *testing.T, got []model.Story, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d stories %v, got %v", len(want), want, ids(got))
	}
	for i, s := range got {
		if s.ID != want[i] {
			t.Fatalf("expected stories %v, got %v", want, ids(got))
		}
	}
}

func TestAssembleCatalogCollapsesSeriesToFirstPart(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := AssembleCatalog([]model.Story{
		seriesStory("s1", "A", 1, base.AddDate(0, 0, 1)),
		seriesStory("s2", "A", 2, base.AddDate(0, 0, 2)),
		standaloneStory("s3", base),
	})

	assertIDs(t, got, "s1", "s3")
}

func TestAssembleCatalogPartOneWinsRegardlessOfInputOrder(t *testing.T) {
	part2 := seriesStory("p2", "A", 2, time.Unix(5, 0).UTC())
	part1 := seriesStory("p1", "A", 1, time.Unix(10, 0).UTC())

	for _, input := range [][]model.Story{
		{part2, part1},
		{part1, part2},
	} {
		got := AssembleCatalog(input)
		assertIDs(t, got, "p1")
	}
}

func TestAssembleCatalogLaterPartOneReplacesEarlierPartOne(t *testing.T) {
	older := seriesStory("old", "A", 1, time.Unix(100, 0).UTC())
	newer := seriesStory("new", "A", 1, time.Unix(200, 0).UTC())

	for _, input := range [][]model.Story{
		{older, newer},
		{newer, older},
	} {
		got := AssembleCatalog(input)
		assertIDs(t, got, "new")
	}
}

func TestAssembleCatalogEqualTimestampsKeepExistingPartOne(t *testing.T) {
	at := time.Unix(100, 0).UTC()
	first := seriesStory("first", "A", 1, at)
	second := seriesStory("second", "A", 1, at)

	got := AssembleCatalog([]model.Story{first, second})
	assertIDs(t, got, "first")
}

func TestAssembleCatalogBrokenSeriesLinkageIsStandalone(t *testing.T) {
	seriesID := "A"
	noPart := model.Story{
		ID:          "no-part",
		SeriesID:    &seriesID,
		PublishedAt: time.Unix(50, 0).UTC(),
	}
	part := 3
	noSeries := model.Story{
		ID:          "no-series",
		PartNumber:  &part,
		PublishedAt: time.Unix(40, 0).UTC(),
	}

	got := AssembleCatalog([]model.Story{noPart, noSeries})
	assertIDs(t, got, "no-part", "no-series")
}

func TestAssembleCatalogSortsDescendingByPublishedAt(t *testing.T) {
	got := AssembleCatalog([]model.Story{
		standaloneStory("a", time.Unix(10, 0).UTC()),
		standaloneStory("b", time.Unix(30, 0).UTC()),
		standaloneStory("c", time.Unix(20, 0).UTC()),
	})

	assertIDs(t, got, "b", "c", "a")
}

func TestAssembleCatalogIdempotent(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	input := []model.Story{
		seriesStory("a1", "A", 1, base.AddDate(0, 0, 3)),
		seriesStory("a2", "A", 2, base.AddDate(0, 0, 4)),
		seriesStory("b2", "B", 2, base.AddDate(0, 0, 1)),
		standaloneStory("solo", base),
	}

	once := AssembleCatalog(input)
	twice := AssembleCatalog(once)

	assertIDs(t, twice, ids(once)...)
}

func TestAssembleCatalogDuplicateStandaloneOverwrites(t *testing.T) {
	first := standaloneStory("dup", time.Unix(10, 0).UTC())
	second := standaloneStory("dup", time.Unix(20, 0).UTC())

	got := AssembleCatalog([]model.Story{first, second})
	if len(got) != 1 {
		t.Fatalf("expected single entry, got %v", ids(got))
	}
	if !got[0].PublishedAt.Equal(second.PublishedAt) {
		t.Fatalf("expected later duplicate to win, got published_at=%v", got[0].PublishedAt)
	}
}

func TestAssembleCatalogOutputNeverLongerThanInput(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	input := []model.Story{
		seriesStory("a1", "A", 1, base.Add(1*time.Hour)),
		seriesStory("a2", "A", 2, base.Add(2*time.Hour)),
		seriesStory("a3", "A", 3, base.Add(3*time.Hour)),
		standaloneStory("x", base.Add(4*time.Hour)),
	}

	got := AssembleCatalog(input)
	if len(got) > len(input) {
		t.Fatalf("output longer than input: %d > %d", len(got), len(input))
	}
	assertIDs(t, got, "x", "a1")
}
