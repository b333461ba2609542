// Package geocode resolves GPS coordinates to a short place name using the
// OpenStreetMap Nominatim reverse-geocoding API. The lookup is best-effort:
// network or service failures surface as errors the pipeline downgrades to
// "no place name", never as fatal errors.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

type response struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ReverseLookup resolves coordinates to a "city-country" style slug suitable
// for a path segment.
func (c *Client) ReverseLookup(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json&addressdetails=1&accept-language=en", c.BaseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "mediasort")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding API returned status %d", resp.StatusCode)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parse geocoding response: %w", err)
	}

	return formatPlace(result), nil
}

// formatPlace picks the most specific settlement name available and joins it
// with the country as a lowercase dashed slug.
func formatPlace(result response) string {
	city := result.Address.City
	for _, candidate := range []string{result.Address.Town, result.Address.Village, result.Address.County, result.Address.State} {
		if city != "" {
			break
		}
		city = candidate
	}
	country := result.Address.Country

	city = slugify(city)
	country = slugify(country)

	switch {
	case city == "" && country == "":
		return ""
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + "-" + country
	}
}

func slugify(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.ReplaceAll(name, " ", "-")
}
