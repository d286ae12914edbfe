package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies a staff member of an ombudsman office.
type Claims struct {
	Username   string `json:"username"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for a staff account.
func GenerateToken(username, department string, cfg *config.AuthConfig) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		Username:   username,
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string, cfg *config.AuthConfig) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthMiddleware admits requests carrying a valid staff token.
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Fail(c, http.StatusUnauthorized, "Token de autorização ausente")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			Fail(c, http.StatusUnauthorized, "Formato de autorização inválido")
			return
		}

		claims, err := ParseToken(strings.TrimSpace(parts[1]), cfg)
		if err != nil {
			logger.Debug(c.Request.Context(), "token rejected", "error", err)
			Fail(c, http.StatusUnauthorized, "Token inválido ou expirado")
			return
		}

		c.Set("username", claims.Username)
		c.Set("department", claims.Department)

		ctx := context.WithValue(c.Request.Context(), logger.UsernameKey, claims.Username)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUsername gets the username from context
func GetUsername(c *gin.Context) string {
	return c.GetString("username")
}

// GetDepartment gets the staff member's department from context
func GetDepartment(c *gin.Context) string {
	return c.GetString("department")
}
