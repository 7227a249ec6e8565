// Package chaintest provides an in-process JSON-RPC node for tests.
package chaintest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Handler answers one JSON-RPC method. Returning a non-nil *Error sends a
// JSON-RPC error object instead of a result.
type Handler func(params []json.RawMessage) (any, *Error)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Result returns a Handler that always answers v.
func Result(v any) Handler {
	return func([]json.RawMessage) (any, *Error) { return v, nil }
}

// Fail returns a Handler that always answers with a JSON-RPC error.
func Fail(code int, msg string) Handler {
	return func([]json.RawMessage) (any, *Error) { return nil, &Error{Code: code, Message: msg} }
}

// Server is a mock node. Unknown methods answer -32601.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string][][]json.RawMessage
}

// NewServer starts a mock node; it is closed when the test ends.
func NewServer(t *testing.T, handlers map[string]Handler) *Server {
	t.Helper()
	s := &Server{
		handlers: make(map[string]Handler, len(handlers)),
		calls:    make(map[string][][]json.RawMessage),
	}
	for m, h := range handlers {
		s.handlers[m] = h
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle installs or replaces the handler for method.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Calls returns the params of every request received for method.
func (s *Server) Calls(method string) [][]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]json.RawMessage(nil), s.calls[method]...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     int64             `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	h, ok := s.handlers[req.Method]
	s.calls[req.Method] = append(s.calls[req.Method], req.Params)
	s.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &Error{Code: -32601, Message: "method not found"}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}
