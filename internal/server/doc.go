// Package server implements the HTTP and WebSocket transport for NeonChat.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers. The room coordination
// core lives in the chat package; this package only moves bytes between the
// network and chat sessions.
package server
