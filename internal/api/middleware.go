package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/models"
)

// AuthMiddleware returns a Gin middleware that requires a Bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return authMiddleware(false)
}

// AuthMiddlewareWithQueryToken also accepts a ?token= query parameter, used
// by the inline document viewer which cannot set headers.
func AuthMiddlewareWithQueryToken() gin.HandlerFunc {
	return authMiddleware(true)
}

func authMiddleware(allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" && allowQueryToken {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		jwtSecret := c.MustGet("jwtSecret").([]byte)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		id, idOK := claims["id"].(float64)
		username, nameOK := claims["username"].(string)
		role, roleOK := claims["role"].(string)
		if !idOK || !nameOK || !roleOK {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		c.Set(audit.CurrentUserKey, &models.AuthUser{
			ID:       int64(id),
			Username: username,
			Role:     role,
		})
		c.Next()
	}
}

// RequireRole gates a route to the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := audit.CurrentUser(c)
		if user == nil {
			abortUnauthorized(c, "Authentication required")
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status:  "error",
			Code:    "FORBIDDEN",
			Message: "Access denied",
		})
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}
