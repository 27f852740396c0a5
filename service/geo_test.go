package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLocator(providers ...geoProvider) *GeoLocator {
	l := NewGeoLocator(nil, nil)
	l.providers = providers
	return l
}

func providerAt(base geoProvider, url string) geoProvider {
	base.endpoint = url
	return base
}

func TestLocate_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"latitude":41.01,"longitude":28.97,"city":"Istanbul","region":"Istanbul","country_name":"Turkey"}`))
	}))
	defer server.Close()

	place, err := testLocator(providerAt(defaultGeoProviders[0], server.URL)).Locate(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if place.City != "Istanbul" || place.Country != "Turkey" {
		t.Fatalf("unexpected place: %+v", place)
	}
	if place.Source != "ipapi" {
		t.Fatalf("expected source ipapi, got %q", place.Source)
	}
}

func TestLocate_ProviderReportsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
	}))
	defer server.Close()

	_, err := testLocator(providerAt(defaultGeoProviders[0], server.URL)).Locate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "RateLimited") {
		t.Fatalf("expected provider reason in error, got %v", err)
	}
}

func TestLocate_FallsBackToNextProvider(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body>blocked</body></html>`))
	}))
	defer blocked.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"city":"Ankara","region":"Ankara","country":"Turkey"}`))
	}))
	defer fallback.Close()

	place, err := testLocator(
		providerAt(defaultGeoProviders[0], blocked.URL),
		providerAt(defaultGeoProviders[1], fallback.URL),
	).Locate(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if place.City != "Ankara" || place.Source != "ipwhois" {
		t.Fatalf("unexpected place: %+v", place)
	}
}

func TestLocate_AllFailCompactsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body>blocked</body></html>`))
	}))
	defer server.Close()

	_, err := testLocator(providerAt(defaultGeoProviders[2], server.URL)).Locate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(strings.ToLower(err.Error()), "<html") {
		t.Fatalf("expected compact error without html, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status code in error, got %q", err.Error())
	}
}

func TestLocate_BogonIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"10.0.0.1","bogon":true}`))
	}))
	defer server.Close()

	if _, err := testLocator(providerAt(defaultGeoProviders[2], server.URL)).Locate(context.Background()); err == nil {
		t.Fatal("expected bogon address to fail")
	}
}

func TestLocate_CanceledContextStopsEarly(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"city":"Izmir"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testLocator(
		providerAt(defaultGeoProviders[2], server.URL),
		providerAt(defaultGeoProviders[2], server.URL),
	).Locate(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 0 {
		t.Fatalf("expected no provider to be called, got %d calls", calls)
	}
}
