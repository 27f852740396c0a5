package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const geoErrorSnippetN = 120

// Place is the city a public IP resolves to.
type Place struct {
	City    string
	Country string
	Source  string
}

// geoProvider describes one IP geolocation endpoint by the JSON paths it answers with.
type geoProvider struct {
	name     string
	endpoint string
	city     string
	country  string
	// failed returns the provider's own error message, or "" for a usable answer.
	failed func(body gjson.Result) string
}

var defaultGeoProviders = []geoProvider{
	{
		name: "ipapi", endpoint: "https://ipapi.co/json/", city: "city", country: "country_name",
		failed: func(body gjson.Result) string {
			if body.Get("error").Bool() {
				return firstNonEmpty(body.Get("reason").String(), "unknown error")
			}
			return ""
		},
	},
	{
		name: "ipwhois", endpoint: "https://ipwho.is/", city: "city", country: "country",
		failed: func(body gjson.Result) string {
			if !body.Get("success").Bool() {
				return firstNonEmpty(body.Get("message").String(), "provider returned unsuccessful response")
			}
			return ""
		},
	},
	{
		name: "ipinfo", endpoint: "https://ipinfo.io/json", city: "city", country: "country",
		failed: func(body gjson.Result) string {
			if body.Get("bogon").Bool() {
				return "bogon IP"
			}
			return body.Get("error.message").String()
		},
	},
}

// GeoLocator guesses the user's city from their public IP so the search form can offer
// a departure airport. Providers are tried in order until one answers with a city.
type GeoLocator struct {
	httpClient *http.Client
	providers  []geoProvider
	logger     *zap.Logger
}

func NewGeoLocator(httpClient *http.Client, logger *zap.Logger) *GeoLocator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoLocator{httpClient: httpClient, providers: defaultGeoProviders, logger: logger}
}

func (g *GeoLocator) Locate(ctx context.Context) (Place, error) {
	if len(g.providers) == 0 {
		return Place{}, errors.New("no location providers configured")
	}

	var failures []string
	for _, provider := range g.providers {
		place, err := g.locateWith(ctx, provider)
		if err == nil {
			return place, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Place{}, err
		}
		g.logger.Debug("location provider failed", zap.String("provider", provider.name), zap.Error(err))
		failures = append(failures, fmt.Sprintf("%s: %s", provider.name, err.Error()))
	}
	return Place{}, fmt.Errorf("all location providers failed (%s)", strings.Join(failures, " | "))
}

func (g *GeoLocator) locateWith(ctx context.Context, provider geoProvider) (Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.endpoint, nil)
	if err != nil {
		return Place{}, fmt.Errorf("create location request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("location request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if msg := compactErrorSnippet(string(snippet)); msg != "" {
			return Place{}, fmt.Errorf("%s: %s", res.Status, msg)
		}
		return Place{}, errors.New(res.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return Place{}, fmt.Errorf("read location response: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return Place{}, errors.New("decode location response: invalid json")
	}
	body := gjson.ParseBytes(raw)
	if msg := provider.failed(body); msg != "" {
		return Place{}, errors.New(msg)
	}
	place := Place{
		City:    strings.TrimSpace(body.Get(provider.city).String()),
		Country: strings.TrimSpace(body.Get(provider.country).String()),
		Source:  provider.name,
	}
	if place.City == "" {
		return Place{}, errors.New("provider returned no city")
	}
	return place, nil
}

func compactErrorSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)
	if text == "" || strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > geoErrorSnippetN {
		text = text[:geoErrorSnippetN]
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
