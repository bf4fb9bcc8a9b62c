// Package server wires HTTP handlers into a ServeMux for the NeonChat
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: health check, WebSocket endpoint, and the test page.
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.Handle("/ws", WebSocketHandler(hub))
	mux.Handle("/test", TestPageHandler(hub.log))
	return mux
}
