package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"frigo/internal/domain"
)

// Identity headers set by the upstream gateway after authentication.
const (
	HeaderUserID      = "X-User-ID"
	HeaderHouseholdID = "X-Household-ID"
)

const (
	ContextKeyUserID      = "user_id"
	ContextKeyHouseholdID = "household_id"
)

// Identity reads the caller identity forwarded by the gateway and rejects
// requests without a valid user id.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid " + HeaderUserID + " header"},
			})
			return
		}
		c.Set(ContextKeyUserID, userID)

		if raw := c.GetHeader(HeaderHouseholdID); raw != "" {
			householdID, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error":   gin.H{"code": "INVALID_HOUSEHOLD", "message": "invalid " + HeaderHouseholdID + " header"},
				})
				return
			}
			c.Set(ContextKeyHouseholdID, householdID)
		}
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return val.(uuid.UUID), nil
}

// GetHouseholdID returns the caller's household, or nil.
func GetHouseholdID(c *gin.Context) *uuid.UUID {
	val, exists := c.Get(ContextKeyHouseholdID)
	if !exists {
		return nil
	}
	id := val.(uuid.UUID)
	return &id
}
