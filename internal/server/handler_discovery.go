package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "rrsched API",
		Version:     "v1",
		Description: "Priority-leveled round-robin scheduler simulation",
		Endpoints: []endpointInfo{
			{"/api/v1/runs", []string{"GET", "POST"}, "Simulate a workload and list persisted runs. GET accepts ?state="},
			{"/api/v1/runs/{id}", []string{"GET", "DELETE"}, "Single run"},
			{"/api/v1/runs/{id}/events", []string{"GET"}, "Run trace, paged with ?after=&limit="},
			{"/api/v1/runs/{id}/report", []string{"GET"}, "Completion report"},
			{"/api/v1/sessions", []string{"GET", "POST"}, "Interactive scheduler sessions"},
			{"/api/v1/sessions/{id}", []string{"GET", "DELETE"}, "Session state and snapshot"},
			{"/api/v1/sessions/{id}/processes", []string{"POST"}, "Add a process to a session"},
			{"/api/v1/sessions/{id}/execute", []string{"POST"}, "Start execution. Accepts ?step_delay="},
			{"/api/v1/sse/sessions/{id}", []string{"GET"}, "Stream session snapshots"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
