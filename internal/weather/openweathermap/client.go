// Package openweathermap provides the OpenWeatherMap upstream client.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/provider/resilience"
	"github.com/stylecast/stylecast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the per-request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout != 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Current fetches the current weather for a location.
func (c *Client) Current(ctx context.Context, q weather.Query) (*weather.Snapshot, error) {
	body, err := c.get(ctx, "weather", q)
	if err != nil {
		return nil, err
	}

	var resp currentWeatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamSchema, err)
	}
	if resp.Main == nil || len(resp.Weather) == 0 {
		return nil, fmt.Errorf("%w: missing main or weather section", weather.ErrUpstreamSchema)
	}

	return c.toSnapshot(&resp)
}

// FiveDayForecast fetches the 5-day/3-hour forecast for a location.
func (c *Client) FiveDayForecast(ctx context.Context, q weather.Query) (*weather.Forecast, error) {
	body, err := c.get(ctx, "forecast", q)
	if err != nil {
		return nil, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamSchema, err)
	}
	if len(resp.List) == 0 || resp.City == nil {
		return nil, fmt.Errorf("%w: missing list or city section", weather.ErrUpstreamSchema)
	}

	return c.toForecast(&resp), nil
}

// get executes a GET against an endpoint and maps transport and status
// failures onto the weather error taxonomy.
func (c *Client) get(ctx context.Context, endpoint string, q weather.Query) ([]byte, error) {
	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	if q.Coords {
		params.Set("lat", fmt.Sprintf("%.6f", q.Lat))
		params.Set("lon", fmt.Sprintf("%.6f", q.Lon))
	} else {
		params.Set("q", q.String())
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Str("query", q.String()).
			Msg("upstream request failed")
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", weather.ErrNotFound, q.String())
	case resp.StatusCode >= 500:
		// The resilient client already exhausted its retry budget.
		return nil, fmt.Errorf("%w: status %d", weather.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", weather.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// toSnapshot converts an OpenWeatherMap response to the domain model.
func (c *Client) toSnapshot(resp *currentWeatherResponse) (*weather.Snapshot, error) {
	snap := &weather.Snapshot{
		Temperature:    resp.Main.Temp,
		FeelsLike:      resp.Main.FeelsLike,
		TemperatureMin: resp.Main.TempMin,
		TemperatureMax: resp.Main.TempMax,
		Humidity:       resp.Main.Humidity,
		Pressure:       resp.Main.Pressure,
		Description:    resp.Weather[0].Description,
		Group:          weather.GroupFromUpstream(resp.Weather[0].Main),
		WindSpeed:      resp.Wind.Speed,
		Location:       resp.Name,
		Country:        resp.Sys.Country,
		Timestamp:      resp.Dt,
		Sunrise:        resp.Sys.Sunrise,
		Sunset:         resp.Sys.Sunset,
	}

	if resp.Weather[0].ID != 0 {
		id := resp.Weather[0].ID
		snap.WeatherID = &id
	}
	if resp.Rain != nil {
		snap.Rain = resp.Rain.OneHour
	}
	if resp.Snow != nil {
		snap.Snow = resp.Snow.OneHour
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamSchema, err)
	}
	return snap, nil
}

// toForecast converts an OpenWeatherMap forecast response to the domain model.
func (c *Client) toForecast(resp *forecastResponse) *weather.Forecast {
	forecast := &weather.Forecast{
		Location: resp.City.Name,
		Country:  resp.City.Country,
		Sunrise:  resp.City.Sunrise,
		Sunset:   resp.City.Sunset,
		Points:   make([]weather.ForecastPoint, 0, len(resp.List)),
	}

	for _, p := range resp.List {
		point := weather.ForecastPoint{
			Timestamp:         p.Dt,
			Temperature:       p.Main.Temp,
			FeelsLike:         p.Main.FeelsLike,
			Humidity:          p.Main.Humidity,
			Pressure:          p.Main.Pressure,
			WindSpeed:         p.Wind.Speed,
			PrecipProbability: p.Pop,
		}

		if len(p.Weather) > 0 {
			point.Description = p.Weather[0].Description
			point.Group = weather.GroupFromUpstream(p.Weather[0].Main)
		}
		if p.Rain != nil {
			point.Rain = p.Rain.ThreeHour
		}
		if p.Snow != nil {
			point.Snow = p.Snow.ThreeHour
		}

		forecast.Points = append(forecast.Points, point)
	}

	return forecast
}

// OpenWeatherMap API response structures.

type currentWeatherResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      float64  `json:"temp"`
		FeelsLike float64  `json:"feels_like"`
		TempMin   *float64 `json:"temp_min"`
		TempMax   *float64 `json:"temp_max"`
		Pressure  int      `json:"pressure"`
		Humidity  int      `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow *struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Pressure  int     `json:"pressure"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			ID          int    `json:"id"`
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop  float64 `json:"pop"`
		Rain *struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
		Snow *struct {
			ThreeHour float64 `json:"3h"`
		} `json:"snow"`
	} `json:"list"`
	City *struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"city"`
}
