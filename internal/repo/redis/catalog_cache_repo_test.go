package redis

import (
	"context"
	"testing"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
)

func catalogFixture() []model.Story {
	return []model.Story{
		{ID: "s1", Title: "First", Subgenre: enums.SubgenreFantasy, PublishedAt: time.Unix(2000, 0).UTC()},
		{ID: "s2", Title: "Second", Subgenre: enums.SubgenreFantasy, PublishedAt: time.Unix(1000, 0).UTC()},
	}
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewCatalogCacheRepo(client)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "fantasy"); err != nil || ok {
		t.Fatalf("expected cold miss, got ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, "fantasy", catalogFixture(), time.Minute); err != nil {
		t.Fatalf("set projection: %v", err)
	}

	stories, ok, err := repo.Get(ctx, "fantasy")
	if err != nil || !ok {
		t.Fatalf("expected warm hit, got ok=%v err=%v", ok, err)
	}
	if len(stories) != 2 || stories[0].ID != "s1" || stories[1].ID != "s2" {
		t.Fatalf("projection order lost: %v", stories)
	}
}

func TestCatalogCacheEntriesAreIsolatedPerSubgenre(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewCatalogCacheRepo(client)
	ctx := context.Background()

	if err := repo.Set(ctx, "fantasy", catalogFixture(), time.Minute); err != nil {
		t.Fatalf("set projection: %v", err)
	}

	if _, ok, err := repo.Get(ctx, "scifi"); err != nil || ok {
		t.Fatalf("expected miss for other subgenre, got ok=%v err=%v", ok, err)
	}
}

func TestCatalogCacheExpires(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewCatalogCacheRepo(client)
	ctx := context.Background()

	if err := repo.Set(ctx, "fantasy", catalogFixture(), time.Minute); err != nil {
		t.Fatalf("set projection: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok, err := repo.Get(ctx, "fantasy"); err != nil || ok {
		t.Fatalf("expected expired miss, got ok=%v err=%v", ok, err)
	}
}

func TestInvalidateAllDropsEveryProjection(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewCatalogCacheRepo(client)
	ctx := context.Background()

	for _, subgenre := range []string{"fantasy", "scifi", ""} {
		if err := repo.Set(ctx, subgenre, catalogFixture(), time.Minute); err != nil {
			t.Fatalf("set projection %q: %v", subgenre, err)
		}
	}

	if err := repo.InvalidateAll(ctx); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}

	for _, subgenre := range []string{"fantasy", "scifi", ""} {
		if _, ok, err := repo.Get(ctx, subgenre); err != nil || ok {
			t.Fatalf("projection %q should be gone, got ok=%v err=%v", subgenre, ok, err)
		}
	}
}

func TestCorruptCacheEntryIsAMiss(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewCatalogCacheRepo(client)
	ctx := context.Background()

	if err := repo.Set(ctx, "fantasy", catalogFixture(), time.Minute); err != nil {
		t.Fatalf("set projection: %v", err)
	}
	mr.Set("catalog:fantasy", "{not json")

	if _, ok, err := repo.Get(ctx, "fantasy"); err != nil || ok {
		t.Fatalf("corrupt entry must read as a miss, got ok=%v err=%v", ok, err)
	}
}
