package util

import (
	"net/http"
	"net/url"
	"strings"
)

func GetClientIPAddress(r *http.Request) string {
	if forwardedIP := r.Header.Get("X-Forwarded-For"); forwardedIP != "" {
		return forwardedIP
	}
	ip := r.RemoteAddr
	return ip
}

// IsValidURL reports whether input is an absolute http or https URL with a host.
func IsValidURL(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}

	u, err := url.Parse(input)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if u.Host == "" {
		return false
	}

	return true
}
