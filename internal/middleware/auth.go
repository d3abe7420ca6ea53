package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type contextKey string

// CredentialKey is the request-context key holding the authenticated
// operator's credential.
const CredentialKey contextKey = "credential"

var redisClient *redis.Client

// InitAuthMiddleware wires the Redis client used for the token blacklist.
func InitAuthMiddleware(client *redis.Client) {
	redisClient = client
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}
		token := parts[1]

		if redisClient != nil {
			blacklisted, err := redisClient.Exists(r.Context(), fmt.Sprintf("blacklist:%s", token)).Result()
			if err == nil && blacklisted > 0 {
				http.Error(w, "Token revoked", http.StatusUnauthorized)
				return
			}
		}

		credential, err := validateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CredentialKey, credential)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	credential, ok := claims["credential"].(string)
	if !ok || credential == "" {
		return "", fmt.Errorf("missing credential claim")
	}
	return credential, nil
}
