package http

import (
	"fmt"
	"net/http"
)

// Viper key suffixes appended to a client env prefix.
const (
	Timeout                   = "_TIMEOUT_IN_MS"
	Host                      = "_HOST"
	Port                      = "_PORT"
	Scheme                    = "_SCHEME"
	DialTimeout               = "_DIAL_TIMEOUT_IN_MS"
	KeepAliveTimeout          = "_KEEP_ALIVE_TIMEOUT_IN_MS"
	MaxIdleConnections        = "_MAX_IDLE_CONNS"
	MaxIdleConnectionsPerHost = "_MAX_IDLE_CONNS_PER_HOST"
	IdleConnectionTimeout     = "_IDLE_CONN_TIMEOUT_IN_MS"
)

const (
	HeaderContentType          = "Content-Type"
	HeaderValueApplicationJson = "application/json"
	HeaderAPIKey               = "X-CSA-API-KEY"
)

// BuildHttpUrl builds a url from the given scheme, endpoint and path.
func BuildHttpUrl(endpoint, path string) string {
	return fmt.Sprintf("%s%s", endpoint, path)
}

func IsStandard2xx(code int) bool {
	return code >= 200 && code < 300 && http.StatusText(code) != ""
}

func IsStandard4xx(code int) bool {
	return code >= 400 && code < 500 && http.StatusText(code) != ""
}

func IsStandard5xx(code int) bool {
	return code >= 500 && code < 600 && http.StatusText(code) != ""
}
