package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/controller"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/service"
)

// Controller serves the student surface: starting an attempt from a link
// and submitting answers for grading.
type Controller struct {
	attemptSvc service.AttemptService
	gradingSvc service.GradingService
}

func NewController(attemptSvc service.AttemptService, gradingSvc service.GradingService) *Controller {
	return &Controller{attemptSvc: attemptSvc, gradingSvc: gradingSvc}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		attempts := apiV1.Group("/attempts")
		attempts.POST("/start", ctrl.StartAttemptHandler)
		attempts.POST("/submit", ctrl.SubmitAttemptHandler)
	}
}

// StartAttemptHandler godoc
// @Summary Start a quiz attempt
// @Description Validate a student link, create an attempt with a frozen question snapshot, and return the questions without answers
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body dto.StartAttemptRequest true "Quiz ID and link token"
// @Success 201 {object} dto.StartAttemptResponse
// @Failure 404 {object} dto.ErrorResponse "Invalid or expired link"
// @Failure 409 {object} dto.ErrorResponse "Attempt limit reached"
// @Router /attempts/start [post]
func (ctrl *Controller) StartAttemptHandler(c *gin.Context) {
	var req dto.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "quizId and token are required", err))
		return
	}
	resp, err := ctrl.attemptSvc.StartAttempt(req.QuizID, req.Token)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SubmitAttemptHandler godoc
// @Summary Submit a quiz attempt
// @Description Grade the attempt against its frozen snapshot. Submission is accepted exactly once per attempt.
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body dto.SubmitRequest true "Attempt ID and selected answers"
// @Success 200 {object} dto.SubmitResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already submitted"
// @Failure 410 {object} dto.ErrorResponse "Attempt deadline passed"
// @Router /attempts/submit [post]
func (ctrl *Controller) SubmitAttemptHandler(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "attemptId and answers are required", err))
		return
	}
	resp, err := ctrl.gradingSvc.Submit(c.Request.Context(), req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
