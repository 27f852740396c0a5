package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flightbook/model"
)

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
}

func TestFileCache_LoadSave(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	ctx := context.Background()

	got, fresh, err := Load[[]model.Airport](ctx, cache, "airports", time.Hour)
	if err != nil {
		t.Fatalf("expected nil error on miss, got %v", err)
	}
	if fresh || len(got) != 0 {
		t.Fatalf("expected empty stale result, got %+v fresh=%v", got, fresh)
	}

	airports := []model.Airport{{Id: 1, City: "Istanbul", IataCode: "IST"}}
	if err := Save(ctx, cache, "airports", airports); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	got, fresh, err = Load[[]model.Airport](ctx, cache, "airports", time.Hour)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !fresh {
		t.Fatal("expected fresh cache")
	}
	if len(got) != 1 || got[0].IataCode != "IST" {
		t.Fatalf("unexpected cached airports: %+v", got)
	}
}

func TestFileCache_StaleAfterTTL(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir)
	payload := fmt.Sprintf(`{"updated_at":%q,"data":["x"]}`, time.Now().Add(-2*time.Hour).Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(dir, "k.json"), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	got, fresh, err := Load[[]string](context.Background(), cache, "k", time.Hour)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if fresh {
		t.Fatal("expected stale cache")
	}
	if len(got) != 1 {
		t.Fatalf("stale data should still be returned, got %+v", got)
	}
}

func TestSanitizeKey(t *testing.T) {
	if got := sanitizeKey("flights/IST:LHR 2024"); got != "flights_IST_LHR_2024" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestRememberRoute_DedupesAndCaps(t *testing.T) {
	setTestConfigDir(t)

	ist := model.Airport{City: "Istanbul", IataCode: "IST"}
	lhr := model.Airport{City: "London", IataCode: "LHR"}
	if err := RememberRoute(ist, lhr); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for i := 0; i < maxRecentRoutes+2; i++ {
		dest := model.Airport{IataCode: fmt.Sprintf("A%02d", i)}
		if err := RememberRoute(ist, dest); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	if err := RememberRoute(ist, lhr); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	routes, err := LoadRecentRoutes()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(routes) != maxRecentRoutes {
		t.Fatalf("expected %d routes, got %d", maxRecentRoutes, len(routes))
	}
	if routes[0].Destination.IataCode != "LHR" {
		t.Fatalf("expected most recent route first, got %+v", routes[0])
	}
	seen := map[string]bool{}
	for _, r := range routes {
		key := r.Origin.IataCode + r.Destination.IataCode
		if seen[key] {
			t.Fatalf("duplicate route %s", key)
		}
		seen[key] = true
	}
}

func TestRememberRoute_InvalidInput(t *testing.T) {
	setTestConfigDir(t)

	if err := RememberRoute(model.Airport{}, model.Airport{IataCode: "LHR"}); err == nil {
		t.Fatal("expected error for empty origin")
	}
}
