package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plp_smartgrade/backend/internal/shared"
)

// maxBodyBytes caps request bodies read by DecodeJSON
const maxBodyBytes = 1 << 20

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Errors  []shared.ValidationError `json:"errors,omitempty"`
}

type ctxKey int

const userKey ctxKey = iota

// WithUser stores the authenticated user on the context
func WithUser(ctx context.Context, user *shared.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or nil
func UserFromContext(ctx context.Context) *shared.User {
	user, _ := ctx.Value(userKey).(*shared.User)
	return user
}

// WriteJSON wraps payload in a success envelope
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(JSONResponse{Success: true, Data: payload}); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}

// WriteJSONError writes a standardized error body
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, JSONError{Message: message})
}

func writeError(w http.ResponseWriter, status int, body JSONError) {
	slog.Debug("http error", "status", status, "message", body.Message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body.Success = false
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("writing JSON error response", "error", err)
	}
}

// HandleGRPCError translates gRPC status errors to HTTP responses.
func HandleGRPCError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		shared.ReportError(err, map[string]interface{}{"source": "grpc"})
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch st.Code() {
	case codes.InvalidArgument:
		WriteJSONError(w, http.StatusBadRequest, st.Message())
	case codes.Unauthenticated:
		WriteJSONError(w, http.StatusUnauthorized, st.Message())
	case codes.PermissionDenied:
		WriteJSONError(w, http.StatusForbidden, st.Message())
	case codes.NotFound:
		WriteJSONError(w, http.StatusNotFound, st.Message())
	case codes.AlreadyExists:
		WriteJSONError(w, http.StatusConflict, st.Message())
	case codes.Unavailable:
		WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable: the grade service is unreachable")
	case codes.DeadlineExceeded:
		WriteJSONError(w, http.StatusGatewayTimeout, "Service Timeout: the grade service took too long to respond")
	default:
		shared.ReportError(err, map[string]interface{}{"grpc_code": st.Code().String()})
		WriteJSONError(w, http.StatusInternalServerError, st.Message())
	}
}

// HandleError maps errors from the in-process services to HTTP responses.
// Unexpected errors are reported and hidden behind a generic message.
func HandleError(w http.ResponseWriter, err error) {
	var inputErr *shared.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, JSONError{Message: "Validation failed", Errors: inputErr.Fields})
	case errors.Is(err, shared.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		WriteJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		WriteJSONError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		shared.ReportError(err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// DecodeJSON reads a JSON body into v
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", shared.ErrInvalidInput)
	}
	return nil
}

// QueryInt parses an optional integer query parameter
func QueryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", shared.ErrInvalidInput, key)
	}
	return n, nil
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
