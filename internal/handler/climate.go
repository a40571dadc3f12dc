package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/service"
)

// ClimateHandler exposes current weather lookups. Responses are
// cached by the Redis response-cache middleware in front of the
// route, so repeated lookups for the same city do not hit the
// upstream API.
type ClimateHandler struct {
	Weather *service.WeatherClient
}

func NewClimateHandler(w *service.WeatherClient) *ClimateHandler {
	return &ClimateHandler{Weather: w}
}

// Current handles GET /climate/current?city=... or ?lat=..&lon=..
func (h *ClimateHandler) Current(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if latStr, lonStr := c.QueryParam("lat"), c.QueryParam("lon"); latStr != "" && lonStr != "" {
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		if err1 != nil || err2 != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coordinates"})
		}
		wx, err := h.Weather.ByCoords(ctx, lat, lon)
		if err != nil {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "weather lookup failed"})
		}
		return c.JSON(http.StatusOK, wx)
	}

	city := c.QueryParam("city")
	if city == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "city or lat/lon required"})
	}
	wx, err := h.Weather.ByCity(ctx, city)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "weather lookup failed"})
	}
	return c.JSON(http.StatusOK, wx)
}
