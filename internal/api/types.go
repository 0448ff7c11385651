package api

const (
	statusHealthy  = "healthy"
	statusReady    = "ready"
	statusNotReady = "not ready"
	checkOK        = "ok"
)

// HealthResponse is the body of /health and /readiness. Checks maps each
// readiness check to "ok" or the error it reported.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
