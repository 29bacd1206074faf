package geocode

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/John-Robertt/PMC/internal/domain"
)

const (
	NameGoogle           = "google"
	defaultGoogleBaseURL = "https://maps.googleapis.com"
)

// Google 调用 Google Geocoding API（需要 API key；地址为带类型标签的分量列表）。
type Google struct {
	BaseURL  string
	Language string
	APIKey   string
}

func (Google) Name() string { return NameGoogle }

func (p Google) Reverse(ctx context.Context, c *http.Client, lat, lon float64) (domain.Location, error) {
	q := url.Values{}
	q.Set("latlng", formatCoord(lat)+","+formatCoord(lon))
	q.Set("key", p.APIKey)
	if p.Language != "" {
		q.Set("language", p.Language)
	}

	b, err := getJSON(ctx, c, baseURL(p.BaseURL, defaultGoogleBaseURL)+"/maps/api/geocode/json?"+q.Encode())
	if err != nil {
		return domain.Location{}, err
	}

	doc := gjson.ParseBytes(b)
	switch status := doc.Get("status").String(); status {
	case "OK", "":
	case "ZERO_RESULTS":
		return domain.Location{}, ErrNoResult
	default:
		return domain.Location{}, &APIStatusError{Status: status, Message: doc.Get("error_message").String()}
	}

	first := doc.Get("results.0")
	if isEmptyJSON(first) {
		return domain.Location{}, ErrNoResult
	}
	return normalize(first), nil
}
