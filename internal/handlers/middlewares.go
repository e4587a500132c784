package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Faysoula/SyncSolve-sub000/pkg/jwt"
)

type Key string

const (
	UserClaimsKey Key = "user_claims"
)

var (
	ErrUnauthorized  = errors.New("unauthorized: no authentication token provided")
	ErrInvalidClaims = errors.New("unauthorized: invalid user claims")
)

func (hr *HandlerRepo) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenStr := ""

		// 1. Try to get token from Authorization header (standard for most API calls)
		if authHeader != "" {
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) == 2 && strings.ToLower(headerParts[0]) == "bearer" {
				tokenStr = headerParts[1]
			} else {
				hr.logger.Warn("Malformed Authorization header", "header", authHeader)
				hr.unauthorized(w, r)
				return
			}
		}

		// 2. If not in header, fall back to query parameter. Browser WebSocket
		// clients cannot set headers on the upgrade request.
		if tokenStr == "" {
			tokenStr = r.URL.Query().Get("auth_token")
			if tokenStr != "" {
				hr.logger.Info("Authenticating via 'auth_token' query parameter (likely WebSocket).")
			}
		}

		// 3. If still no token, reject the request
		if tokenStr == "" {
			hr.logger.Warn("Missing Authorization token in header or query parameter.")
			hr.unauthorized(w, r)
			return
		}

		// Verify token with full validation (signature, issuer, audience, expiration)
		claims, err := hr.jwtParser.VerifyToken(tokenStr)
		if err != nil {
			hr.logger.Error("Failed to verify token", "error", err)
			hr.unauthorized(w, r)
			return
		}

		hr.logger.Debug("Token verified successfully", "user_id", claims.Sub, "email", claims.Email)

		ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserClaims extracts the UserClaims from the request context
// Returns an error if the claims are not found or are invalid
func GetUserClaims(ctx context.Context) (*jwt.UserClaims, error) {
	claims, ok := ctx.Value(UserClaimsKey).(*jwt.UserClaims)
	if !ok || claims == nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// GetUserID extracts the numeric user ID from the request context.
func GetUserID(ctx context.Context) (int64, error) {
	claims, err := GetUserClaims(ctx)
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseInt(claims.Sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidClaims
	}
	return userID, nil
}
