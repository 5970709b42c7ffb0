// Package rpc holds the request/response types shared between the daemon
// and its clients.
package rpc

// AddCratesRequest is the request body for POST /add-crates.
type AddCratesRequest struct {
	Crates []CrateSpec `json:"crates"`
}

type CrateSpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// AddCratesResponse is the response body for POST /add-crates.
type AddCratesResponse struct {
	Results []CrateResult `json:"results"`
}

type CrateResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Items   int    `json:"items"`
	Error   string `json:"error,omitempty"`
}

// ProgressLine is a single line of NDJSON streamed from the add-crates endpoint.
type ProgressLine struct {
	Type    string       `json:"type"` // "progress" or "result"
	Message string       `json:"message,omitempty"`
	Result  *CrateResult `json:"result,omitempty"`
}

// HoverRequest is the request body for POST /hover and POST /nav.
type HoverRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path"`
}

// HoverResponse is the response body for POST /hover. HTML is empty when the
// item produces no hover documentation.
type HoverResponse struct {
	Found bool   `json:"found"`
	HTML  string `json:"html,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// NavResponse is the response body for POST /nav.
type NavResponse struct {
	Found   bool   `json:"found"`
	Summary string `json:"summary,omitempty"`
}

// URLsResponse is the response body for POST /urls.
type URLsResponse struct {
	URLs []string `json:"urls"`
}

// ResolveRequest is the request body for POST /resolve.
type ResolveRequest struct {
	Crate     string `json:"crate"`
	Version   string `json:"version,omitempty"`
	Reference string `json:"reference"`
	Context   string `json:"context,omitempty"` // path of the item the link appears on
}

// ResolveResponse is the response body for POST /resolve.
type ResolveResponse struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Crates []CrateStatus `json:"crates"`
}

type CrateStatus struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Items     int    `json:"items"`
	Processed bool   `json:"processed"`
}
