package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/service"
)

type AssessmentHandler struct {
	Service *service.AssessmentService
}

func NewAssessmentHandler(s *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{Service: s}
}

// Start begins a new assessment at step 1.
func (h *AssessmentHandler) Start(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	payload, err := h.Service.Start(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Assessment started successfully",
		"data":    payload,
	})
}

// Active returns the caller's in-progress session and current step.
func (h *AssessmentHandler) Active(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	payload, err := h.Service.GetActive(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payload})
}

// SubmitStep grades the current step.
func (h *AssessmentHandler) SubmitStep(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	sessionID, ok := objectIDParam(c, "sessionId")
	if !ok {
		return
	}

	var req struct {
		Answers []service.AnswerSubmission `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answers must be an array of {questionId, chosenKey}"})
		return
	}

	result, err := h.Service.SubmitStep(c.Request.Context(), uid, sessionID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Step submitted successfully",
		"data":    result,
	})
}

// NextStep advances a proceedable session to its next step.
func (h *AssessmentHandler) NextStep(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	sessionID, ok := objectIDParam(c, "sessionId")
	if !ok {
		return
	}

	payload, err := h.Service.StartNextStep(c.Request.Context(), uid, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Next step started",
		"data":    payload,
	})
}
