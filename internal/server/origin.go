// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// originChecker decides whether a WebSocket upgrade request comes from an
// allowed origin. A configured "*" allows every origin, which is the default
// so that non-browser clients work out of the box.
type originChecker struct {
	allowAll bool
	allowed  map[string]struct{}
	log      *zap.Logger
}

func newOriginChecker(origins []string, log *zap.Logger) *originChecker {
	oc := &originChecker{
		allowed: make(map[string]struct{}, len(origins)),
		log:     log,
	}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			oc.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", zap.String("origin", origin))
			continue
		}
		oc.allowed[normalized] = struct{}{}
	}

	return oc
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (oc *originChecker) check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		oc.log.Warn("blocked upgrade without origin header")
		return false
	}

	normalized, ok := normalizeOrigin(originHeader)
	if !ok {
		oc.log.Warn("blocked upgrade with malformed origin", zap.String("origin", originHeader))
		return false
	}

	if _, exists := oc.allowed[normalized]; !exists {
		oc.log.Warn("blocked upgrade from disallowed origin", zap.String("origin", originHeader))
		return false
	}

	return true
}
