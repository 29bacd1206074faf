package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/John-Robertt/PMC/internal/domain"
)

const (
	NameNominatim           = "nominatim"
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
)

// Nominatim 调用 OpenStreetMap Nominatim 的 /reverse 接口（jsonv2，扁平 address）。
type Nominatim struct {
	BaseURL  string
	Language string
}

func (Nominatim) Name() string { return NameNominatim }

func (p Nominatim) Reverse(ctx context.Context, c *http.Client, lat, lon float64) (domain.Location, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("addressdetails", "1")
	if p.Language != "" {
		q.Set("accept-language", p.Language)
	}

	b, err := getJSON(ctx, c, baseURL(p.BaseURL, defaultNominatimBaseURL)+"/reverse?"+q.Encode())
	if err != nil {
		return domain.Location{}, err
	}

	doc := gjson.ParseBytes(b)
	// 无结果时 Nominatim 返回 200 + {"error":"Unable to geocode"}。
	if doc.Get("error").Exists() || isEmptyJSON(doc) {
		return domain.Location{}, ErrNoResult
	}
	return normalize(doc), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

func baseURL(configured, def string) string {
	u := strings.TrimSpace(configured)
	if u == "" {
		u = def
	}
	return strings.TrimRight(u, "/")
}
