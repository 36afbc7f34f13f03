package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/kermarrec/hgtpipe/internal/app"
	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/hgt"
)

type ElevationController struct {
	App    *app.Context
	Folder string
}

// HandleLookup resolves the tile covering ?lat=&lng= and returns the
// elevation of the matching cell.
func (ctrl *ElevationController) HandleLookup(c *echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lat"})
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lng"})
	}

	pos := hgt.Position{Lat: lat, Lng: lng}

	elev, err := hgt.Lookup(ctrl.Folder, pos)
	if err != nil {
		if errors.Is(err, domain.ErrNoTile) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		}
		ctrl.App.Logger.Error("lookup (%f, %f): %v", lat, lng, err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup failed"})
	}

	resp := ElevationResponse{Lat: lat, Lng: lng, Tile: hgt.TileName(pos)}
	if !elev.Void {
		v := elev.Value
		resp.Elevation = &v
	}
	return c.JSON(http.StatusOK, resp)
}

func (ctrl *ElevationController) HandleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
