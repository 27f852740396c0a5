package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"flightbook/model"
)

const maxRecentRoutes = 8

type RecentRoute struct {
	Origin      model.Airport `json:"origin"`
	Destination model.Airport `json:"destination"`
}

type routeHistory struct {
	Routes []RecentRoute `json:"routes"`
}

func LoadRecentRoutes() ([]RecentRoute, error) {
	path, err := configPath("routes.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history routeHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid route history format")
	}
	return history.Routes, nil
}

// RememberRoute moves the route to the front of the history.
func RememberRoute(origin model.Airport, destination model.Airport) error {
	if strings.TrimSpace(origin.IataCode) == "" || strings.TrimSpace(destination.IataCode) == "" {
		return errors.New("origin and destination codes are required")
	}
	history, _ := LoadRecentRoutes()
	next := []RecentRoute{{Origin: origin, Destination: destination}}

	for _, existing := range history {
		if stringsEqualFold(existing.Origin.IataCode, origin.IataCode) &&
			stringsEqualFold(existing.Destination.IataCode, destination.IataCode) {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentRoutes {
			break
		}
	}

	return saveRecentRoutes(next)
}

func saveRecentRoutes(routes []RecentRoute) error {
	path, err := configPath("routes.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(routeHistory{Routes: routes}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
