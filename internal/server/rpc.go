package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/errors"
)

// JSON-RPC 2.0 error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, rpcParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, rpcInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "tsp.solve":
		var req SolveRequest
		if err := decodeParams(request.Params, &req); err != nil {
			s.respondWithError(w, rpcInvalidParams, "Invalid params: "+err.Error(), request.ID)
			return
		}
		result, err = s.startJob(req)
	case "tsp.status", "tsp.cancel":
		var req JobRequest
		if err := decodeParams(request.Params, &req); err != nil {
			s.respondWithError(w, rpcInvalidParams, "Invalid params: "+err.Error(), request.ID)
			return
		}
		if err := validateRequest(req); err != nil {
			s.respondWithError(w, rpcInvalidParams, "Invalid params: "+err.Error(), request.ID)
			return
		}
		if request.Method == "tsp.status" {
			result, err = s.jobStatus(req.JobID)
		} else {
			result, err = s.cancelJob(req.JobID)
		}
	default:
		s.respondWithError(w, rpcMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code := rpcServerError
		if errors.StatusCode(err) == http.StatusBadRequest {
			code = rpcInvalidParams
		}
		fields := append([]zap.Field{zap.String("method", request.Method)}, errorFields(err)...)
		s.logger.Debug("RPC call failed", fields...)
		s.respondWithError(w, code, err.Error(), request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// decodeParams accepts params either as an object or as an array whose first
// element is the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New(errors.ErrBadRequest, "missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New(errors.ErrBadRequest, "missing required parameters")
		}
		raw = list[0]
	}
	return json.Unmarshal(raw, v)
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Debug("RPC error",
		zap.Int("code", code),
		zap.String("message", message),
	)

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
