// Package weather reads current conditions at the business location from
// OpenWeather.
package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "weather"

// DefaultBaseURL is the OpenWeather current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Conditions is the normalised current weather.
type Conditions struct {
	Location    string   `json:"location"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
	Units       string   `json:"units"`
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// Adapter calls the current weather endpoint.
type Adapter struct {
	client     *httpjson.Client
	baseURL    string
	units      string
	credential httpjson.Credential
}

// New builds an Adapter. Params: units (standard|metric|imperial), base_url.
func New(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	units := strings.ToLower(desc.Param("units", "metric"))
	switch units {
	case "standard", "metric", "imperial":
	default:
		return nil, fmt.Errorf("%w: source %s: unknown units %q", domain.ErrConfiguration, desc.ID, units)
	}
	return &Adapter{
		client:     httpjson.NewClient(httpClient, desc.ID),
		baseURL:    desc.Param("base_url", DefaultBaseURL),
		units:      units,
		credential: httpjson.ResolveCredential(desc, creds),
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch needs a location query param ("Austin,TX,US"); without one the
// call fails since the business host says nothing about where it is.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	location := q.Param("location", "")
	if location == "" {
		return domain.RawPayload{}, fmt.Errorf("%w: location param is required", domain.ErrInvalidInput)
	}
	key, err := a.credential.Require()
	if err != nil {
		return domain.RawPayload{}, err
	}

	params := url.Values{"q": {location}, "appid": {key}, "units": {a.units}}
	var resp currentResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"?"+params.Encode(), nil, &resp); err != nil {
		return domain.RawPayload{}, httpjson.Redact(err, key)
	}

	c := Conditions{Location: location, Units: a.units}
	if resp.Name != "" {
		c.Location = resp.Name
	}
	if len(resp.Weather) > 0 {
		c.Summary = resp.Weather[0].Main
		c.Description = resp.Weather[0].Description
	}
	if resp.Main != nil {
		c.Temperature = resp.Main.Temp
		c.Humidity = resp.Main.Humidity
	}
	if resp.Wind != nil {
		c.WindSpeed = resp.Wind.Speed
	}

	return domain.NewRawPayload(c, domain.Completeness(map[string]bool{
		"summary":     c.Summary != "",
		"temperature": c.Temperature != nil,
		"humidity":    c.Humidity != nil,
		"wind":        c.WindSpeed != nil,
	}))
}
