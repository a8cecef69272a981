package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
)

type profileRepoStub struct {
	profiles    map[string]model.UserProfile
	unlocks     map[string][]model.UnlockRecord
	readIDs     map[string][]string
	favoriteIDs map[string][]string
	savedPrefs  map[string][]enums.Subgenre
}

func newProfileRepoStub() *profileRepoStub {
	return &profileRepoStub{
		profiles:    map[string]model.UserProfile{},
		unlocks:     map[string][]model.UnlockRecord{},
		readIDs:     map[string][]string{},
		favoriteIDs: map[string][]string{},
		savedPrefs:  map[string][]enums.Subgenre{},
	}
}

func (r *profileRepoStub) FindByID(_ context.Context, userID string) (model.UserProfile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return model.UserProfile{}, pgrepo.ErrUserNotFound
	}
	return profile, nil
}

func (r *profileRepoStub) UpdateSubgenrePrefs(_ context.Context, userID string, prefs []enums.Subgenre) error {
	if _, ok := r.profiles[userID]; !ok {
		return pgrepo.ErrUserNotFound
	}
	r.savedPrefs[userID] = prefs
	return nil
}

func (r *profileRepoStub) ListUnlocks(_ context.Context, userID string) ([]model.UnlockRecord, error) {
	return r.unlocks[userID], nil
}

func (r *profileRepoStub) ListReadIDs(_ context.Context, userID string) ([]string, error) {
	return r.readIDs[userID], nil
}

func (r *profileRepoStub) ListFavoriteIDs(_ context.Context, userID string) ([]string, error) {
	return r.favoriteIDs[userID], nil
}

type storyFinderStub struct {
	stories map[string]model.Story
	queried [][]string
}

func (f *storyFinderStub) ListByIDs(_ context.Context, storyIDs []string) ([]model.Story, error) {
	f.queried = append(f.queried, storyIDs)
	out := make([]model.Story, 0, len(storyIDs))
	for _, id := range storyIDs {
		if story, ok := f.stories[id]; ok {
			out = append(out, story)
		}
	}
	return out, nil
}

func TestOverviewAggregatesAccountState(t *testing.T) {
	repo := newProfileRepoStub()
	repo.profiles["user-1"] = model.UserProfile{ID: "user-1", Coins: 80}
	repo.unlocks["user-1"] = []model.UnlockRecord{{StoryID: "s1", UnlockedAt: time.Unix(100, 0)}}
	repo.readIDs["user-1"] = []string{"s1", "s2"}
	repo.favoriteIDs["user-1"] = []string{"s2"}
	svc := NewService(repo, &storyFinderStub{})

	overview, err := svc.Overview(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Profile.Coins != 80 {
		t.Fatalf("expected coins 80, got %d", overview.Profile.Coins)
	}
	if len(overview.Unlocks) != 1 || overview.Unlocks[0].StoryID != "s1" {
		t.Fatalf("unexpected unlocks: %v", overview.Unlocks)
	}
	if len(overview.ReadIDs) != 2 || len(overview.FavoriteIDs) != 1 {
		t.Fatalf("unexpected marks: reads=%v favorites=%v", overview.ReadIDs, overview.FavoriteIDs)
	}
}

func TestOverviewUnknownProfile(t *testing.T) {
	svc := NewService(newProfileRepoStub(), &storyFinderStub{})

	if _, err := svc.Overview(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestLibraryHydratesUnlockedStoriesWithoutBodies(t *testing.T) {
	repo := newProfileRepoStub()
	repo.profiles["user-1"] = model.UserProfile{ID: "user-1"}
	repo.unlocks["user-1"] = []model.UnlockRecord{{StoryID: "s1"}, {StoryID: "s2"}}
	finder := &storyFinderStub{stories: map[string]model.Story{
		"s1": {ID: "s1", Premium: true, Body: "secret"},
		"s2": {ID: "s2", Body: "free text"},
	}}
	svc := NewService(repo, finder)

	library, err := svc.Library(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if len(library) != 2 {
		t.Fatalf("expected two stories, got %d", len(library))
	}
	for _, story := range library {
		if story.Premium && story.Body != "" {
			t.Fatalf("premium body leaked into library listing: %+v", story)
		}
	}
	if len(finder.queried) != 1 || len(finder.queried[0]) != 2 {
		t.Fatalf("unexpected finder queries: %v", finder.queried)
	}
}

func TestLibraryEmptyWithoutUnlocks(t *testing.T) {
	repo := newProfileRepoStub()
	repo.profiles["user-1"] = model.UserProfile{ID: "user-1"}
	finder := &storyFinderStub{}
	svc := NewService(repo, finder)

	library, err := svc.Library(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if len(library) != 0 {
		t.Fatalf("expected empty library, got %v", library)
	}
	if len(finder.queried) != 0 {
		t.Fatalf("expected no story lookup for empty unlock list")
	}
}

func TestUpdatePreferencesValidatesAndDeduplicates(t *testing.T) {
	repo := newProfileRepoStub()
	repo.profiles["user-1"] = model.UserProfile{ID: "user-1"}
	svc := NewService(repo, &storyFinderStub{})

	prefs, err := svc.UpdatePreferences(context.Background(), "user-1", []string{"fantasy", "fantasy", "scifi"})
	if err != nil {
		t.Fatalf("update preferences: %v", err)
	}
	if len(prefs) != 2 || prefs[0] != enums.SubgenreFantasy || prefs[1] != enums.SubgenreSciFi {
		t.Fatalf("unexpected prefs: %v", prefs)
	}
	if len(repo.savedPrefs["user-1"]) != 2 {
		t.Fatalf("expected deduplicated prefs persisted, got %v", repo.savedPrefs["user-1"])
	}

	if _, err := svc.UpdatePreferences(context.Background(), "user-1", []string{"western"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown subgenre, got %v", err)
	}
}
