package geocode

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/John-Robertt/PMC/internal/domain"
)

const (
	NamePhoton           = "photon"
	defaultPhotonBaseURL = "https://photon.komoot.io"
)

// Photon 调用 komoot Photon 的 /reverse 接口（GeoJSON，地址在 features[0].properties）。
type Photon struct {
	BaseURL  string
	Language string
}

func (Photon) Name() string { return NamePhoton }

func (p Photon) Reverse(ctx context.Context, c *http.Client, lat, lon float64) (domain.Location, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("limit", "1")
	if p.Language != "" {
		q.Set("lang", p.Language)
	}

	b, err := getJSON(ctx, c, baseURL(p.BaseURL, defaultPhotonBaseURL)+"/reverse?"+q.Encode())
	if err != nil {
		return domain.Location{}, err
	}

	feature := gjson.GetBytes(b, "features.0")
	if isEmptyJSON(feature) {
		return domain.Location{}, ErrNoResult
	}
	// properties 内直接是 city/country 等键，交给顶层键规则处理。
	props := feature.Get("properties")
	if !props.IsObject() {
		return domain.UnknownLocation(), nil
	}
	return normalize(props), nil
}
