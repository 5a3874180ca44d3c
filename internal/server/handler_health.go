package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Accounts  int    `json:"accounts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    s.clock.Since(s.startTime).Round(time.Second).String(),
		Accounts:  s.data.accountCount(),
	})
}
