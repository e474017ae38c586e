package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/utils"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// authMiddleware verifies the Bearer token and stashes the owner id in
// the request context.
func (r *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		authHeader := req.Header.Get("Authorization")
		if authHeader == "" {
			respondJSON(w, http.StatusUnauthorized, api.Envelope{Success: false, Message: "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondJSON(w, http.StatusUnauthorized, api.Envelope{Success: false, Message: "Invalid authorization header format"})
			return
		}

		claims, err := utils.ValidateToken(parts[1], r.jwtSecret)
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, api.Envelope{Success: false, Message: "Invalid or expired token"})
			return
		}

		userID := utils.UserIDFromClaims(claims)
		if userID == "" {
			respondJSON(w, http.StatusUnauthorized, api.Envelope{Success: false, Message: "Invalid or expired token"})
			return
		}

		ctx := context.WithValue(req.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func ownerID(req *http.Request) string {
	id, _ := req.Context().Value(userIDContextKey).(string)
	return id
}
