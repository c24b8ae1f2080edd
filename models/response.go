package models

// TrendsResponse is the success body of a trend capture.
type TrendsResponse struct {
	Message string          `json:"message"`
	Data    *SnapshotRecord `json:"data"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" or "degraded"
	Uptime   string `json:"uptime"`
	InFlight int    `json:"in_flight"`
	Capacity int    `json:"capacity"`
	Version  string `json:"version"`
}
