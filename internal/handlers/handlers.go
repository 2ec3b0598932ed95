// Package handlers is the thin HTTP layer: bind, call a service, map the
// error taxonomy onto status codes. No assessment rules live here.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
)

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
}

// userID reads the authenticated user from the X-User-ID header set by the
// gateway's auth middleware.
func userID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetHeader("X-User-ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "valid X-User-ID header is required"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// RequireUserID aborts requests that carry no parseable user identity.
func RequireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := primitive.ObjectIDFromHex(c.GetHeader("X-User-ID")); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
