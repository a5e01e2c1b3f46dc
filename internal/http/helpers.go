package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"alkansya/internal/dashboard"
	"alkansya/internal/log"
)

// parsePeriod reads year and month path values
func parsePeriod(yearStr, monthStr string) (dashboard.Period, error) {
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil {
		return dashboard.Period{}, err
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthStr))
	if err != nil {
		return dashboard.Period{}, err
	}
	p := dashboard.Period{Month: month, Year: year}
	return p, p.Validate()
}

// clientIP considers proxies, then falls back to the remote address
func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		return strings.TrimSpace(first)
	}
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return strings.TrimSpace(v)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err.Error())
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg, reason string) {
	writeJSON(w, r, status, errorBody{Error: msg, Reason: reason})
}
