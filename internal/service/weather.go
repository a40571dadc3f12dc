// Package service holds clients for the external collaborators the
// handlers delegate to: weather, model inference, translation, LLM
// and speech synthesis. Each client is constructed once in main and
// passed by reference into the handlers; none of them keep package
// level state.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Weather is the subset of an OpenWeatherMap current-weather
// response the rest of the application cares about.
type Weather struct {
	City        string  `json:"city"`
	TempC       float64 `json:"temp_c"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	RainMM      float64 `json:"rain_mm"`
	Description string  `json:"description"`
}

// WeatherClient calls the OpenWeatherMap geocoding and
// current-weather APIs. GeoBaseURL/DataBaseURL are overridable for
// tests.
type WeatherClient struct {
	APIKey      string
	GeoBaseURL  string
	DataBaseURL string
	HTTP        *http.Client
}

func NewWeatherClient(apiKey string) *WeatherClient {
	return &WeatherClient{
		APIKey:      apiKey,
		GeoBaseURL:  "http://api.openweathermap.org/geo/1.0",
		DataBaseURL: "https://api.openweathermap.org/data/2.5",
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

// ByCity resolves the city to coordinates and fetches its current
// weather. A city the geocoder does not know yields an error.
func (w *WeatherClient) ByCity(ctx context.Context, city string) (Weather, error) {
	geoURL := fmt.Sprintf("%s/direct?q=%s&limit=1&appid=%s",
		w.GeoBaseURL, url.QueryEscape(city), url.QueryEscape(w.APIKey))

	var locs []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := w.getJSON(ctx, geoURL, &locs); err != nil {
		return Weather{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(locs) == 0 {
		return Weather{}, fmt.Errorf("city not found: %s", city)
	}
	wx, err := w.ByCoords(ctx, locs[0].Lat, locs[0].Lon)
	if err != nil {
		return Weather{}, err
	}
	if wx.City == "" {
		wx.City = city
	}
	return wx, nil
}

// ByCoords fetches current weather for a lat/lon pair.
func (w *WeatherClient) ByCoords(ctx context.Context, lat, lon float64) (Weather, error) {
	u := fmt.Sprintf("%s/weather?lat=%f&lon=%f&units=metric&appid=%s",
		w.DataBaseURL, lat, lon, url.QueryEscape(w.APIKey))

	var resp struct {
		Name string `json:"name"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			OneHour float64 `json:"1h"`
		} `json:"rain"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Cod     int    `json:"cod"`
		Message string `json:"message"`
	}
	if err := w.getJSON(ctx, u, &resp); err != nil {
		return Weather{}, fmt.Errorf("fetch weather: %w", err)
	}
	if resp.Cod != 0 && resp.Cod != http.StatusOK {
		return Weather{}, fmt.Errorf("weather api: %s", resp.Message)
	}

	out := Weather{
		City:      resp.Name,
		TempC:     resp.Main.Temp,
		Humidity:  resp.Main.Humidity,
		WindSpeed: resp.Wind.Speed,
		RainMM:    resp.Rain.OneHour,
	}
	if len(resp.Weather) > 0 {
		out.Description = resp.Weather[0].Description
	}
	return out, nil
}

func (w *WeatherClient) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	res, err := w.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(dst)
}
