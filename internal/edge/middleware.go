package edge

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

var errMissingBearer = errors.New("authorization header must be a bearer token")

// CORS adds the headers browsers expect from the function and answers
// pre-flight requests.
func CORS(allowOrigin string, next http.Handler) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerAuth requires an HS256 token signed with secret. An empty secret
// disables the check.
func BearerAuth(secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := verifyBearer(r.Header.Get("Authorization"), []byte(secret)); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rejected request")
			writeJSON(w, http.StatusUnauthorized, analyzeResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func verifyBearer(header string, secret []byte) error {
	if !strings.HasPrefix(header, "Bearer ") {
		return errMissingBearer
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return errMissingBearer
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// RequestID tags each request with an id, reusing the caller's when
// present, and attaches a request-scoped logger to the context.
func RequestID(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		reqLogger := logger.With().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		reqLogger.Debug().Msg("request received")
		next.ServeHTTP(w, r.WithContext(reqLogger.WithContext(r.Context())))
	})
}
