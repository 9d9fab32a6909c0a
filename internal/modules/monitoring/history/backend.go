package history

import (
	"net"
	"strings"
)

const (
	DefaultLocalURL    = "http://localhost:8080"
	DefaultDeployedURL = "https://hyoshii-farm-be-569244639422.asia-southeast2.run.app"

	HistoryPath = "/api/plc-data/history"
)

// Backend lists the candidate backend origins.
type Backend struct {
	// Explicit wins over hostname-based selection when set.
	Explicit string
	Local    string
	Deployed string
}

// SelectBaseURL picks the backend origin for a dashboard served as hostname.
func SelectBaseURL(hostname string, b Backend) string {
	if s := strings.TrimSpace(b.Explicit); s != "" {
		return strings.TrimRight(s, "/")
	}
	local, deployed := b.Local, b.Deployed
	if local == "" {
		local = DefaultLocalURL
	}
	if deployed == "" {
		deployed = DefaultDeployedURL
	}
	if isLocalHost(hostname) {
		return strings.TrimRight(local, "/")
	}
	return strings.TrimRight(deployed, "/")
}

func isLocalHost(hostname string) bool {
	h := strings.ToLower(strings.TrimSpace(hostname))
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
