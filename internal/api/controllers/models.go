package controllers

// ElevationResponse is the JSON body returned for a point lookup.
// Elevation is null when the covering cell is a void sample.
type ElevationResponse struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Tile      string  `json:"tile"`
	Elevation *int16  `json:"elevation"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
