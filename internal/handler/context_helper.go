package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/commission-api/internal/middleware"
	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
	"github.com/noah-isme/commission-api/pkg/response"
)

// actorFromContext returns the authenticated caller, nil on public routes.
func actorFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	actor, _ := value.(*models.JWTClaims)
	return actor
}

// requireActor writes a 401 when the request carries no caller.
func requireActor(c *gin.Context) (*models.JWTClaims, bool) {
	actor := actorFromContext(c)
	if actor == nil || actor.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return actor, true
}
