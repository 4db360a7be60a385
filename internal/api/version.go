// Package api provides HTTP API handlers and the route table for the EHMS backend.
package api

// APIVersion represents the capability level reported by /status.
// Versioning is not part of the URL; all routes live under the base path.
const (
	// APIVersion1 is the initial route layout
	APIVersion1 = 1

	// CurrentAPIVersion is the highest API version supported by this server.
	CurrentAPIVersion = APIVersion1
)

// Feature names reported by /status
const (
	FeatureRoleGate     = "role-gate"
	FeatureTokenRefresh = "token-refresh"
	FeatureDirectory    = "employee-directory"
	FeatureRealtime     = "realtime"
)

// APICapabilities describes the features available at each API version.
var APICapabilities = map[int][]string{
	APIVersion1: {
		FeatureRoleGate,
		FeatureTokenRefresh,
		FeatureDirectory,
	},
}

// Database health values reported by /status
const (
	DatabaseOK       = "ok"
	DatabaseDegraded = "degraded"
)

// StatusResponse is the response from the /status endpoint.
type StatusResponse struct {
	Status     string   `json:"status"`
	Service    string   `json:"service"`
	APIVersion int      `json:"api_version"`
	Features   []string `json:"features,omitempty"`
	Database   string   `json:"database"`
}
