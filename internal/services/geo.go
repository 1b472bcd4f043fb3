package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UnknownLocation is reported when an IP cannot be resolved.
const UnknownLocation = "Unknown location"

// Locator resolves a caller IP into a human-readable place.
type Locator interface {
	Locate(ctx context.Context, ip string) (string, error)
}

// IPAPILocator queries an ip-api.com compatible JSON endpoint.
type IPAPILocator struct {
	baseURL string
	client  *http.Client
}

// NewIPAPILocator creates a locator for baseURL, e.g. "http://ip-api.com/json/".
func NewIPAPILocator(baseURL string) *IPAPILocator {
	return &IPAPILocator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

type ipAPIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	City    string `json:"city"`
	Region  string `json:"regionName"`
	Country string `json:"country"`
}

// Locate returns "City, Country" for ip.
func (l *IPAPILocator) Locate(ctx context.Context, ip string) (string, error) {
	if ip == "" {
		return "", errors.New("empty ip")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+url.PathEscape(ip), nil)
	if err != nil {
		return "", err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation returned status %d", resp.StatusCode)
	}

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("geolocation decode: %w", err)
	}

	if payload.Status != "success" {
		return "", fmt.Errorf("geolocation failed: %s", payload.Message)
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{payload.City, payload.Region, payload.Country} {
		if p != "" && (len(parts) == 0 || parts[len(parts)-1] != p) {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("geolocation returned no place")
	}
	return strings.Join(parts, ", "), nil
}
