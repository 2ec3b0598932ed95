package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/service"
)

type SupervisorHandler struct {
	Service *service.SupervisorService
}

func NewSupervisorHandler(s *service.SupervisorService) *SupervisorHandler {
	return &SupervisorHandler{Service: s}
}

func (h *SupervisorHandler) ListSessions(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	result, err := h.Service.ListActiveSessions(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SupervisorHandler) SessionDetail(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.Service.SessionDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ForceSubmit administratively terminates an in-progress session.
func (h *SupervisorHandler) ForceSubmit(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.ForceSubmit(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session force-submitted"})
}
