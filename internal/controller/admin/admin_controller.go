package admin

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lmorrow/quizforge/config"
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/controller"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/service"
	"github.com/rs/zerolog/log"
)

// Controller serves the admin surface: quiz and bank management, template
// lifecycle, link minting and the scoring summary. Every route sits behind
// the X-Admin-Key gate.
type Controller struct {
	quizSvc     service.QuizService
	templateSvc service.TemplateService
	linkSvc     service.LinkService
	gradingSvc  service.GradingService
	itemGenSvc  service.ItemGeneratorService
	adminKey    string
}

func NewController(
	quizSvc service.QuizService,
	templateSvc service.TemplateService,
	linkSvc service.LinkService,
	gradingSvc service.GradingService,
	itemGenSvc service.ItemGeneratorService,
	cfg *config.Config,
) *Controller {
	if cfg.AdminKey == "" {
		log.Warn().Msg("ADMIN_KEY not set, admin routes are unprotected")
	}
	return &Controller{
		quizSvc:     quizSvc,
		templateSvc: templateSvc,
		linkSvc:     linkSvc,
		gradingSvc:  gradingSvc,
		itemGenSvc:  itemGenSvc,
		adminKey:    cfg.AdminKey,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	adminV1 := router.Group("/api/v1/admin")
	adminV1.Use(ctrl.requireAdminKey())
	{
		quizzes := adminV1.Group("/quizzes")
		quizzes.POST("", ctrl.CreateQuizHandler)
		quizzes.GET("", ctrl.ListQuizzesHandler)
		quizzes.POST("/generate", ctrl.GenerateQuizHandler)
		quizzes.POST("/:id/questions", ctrl.AddQuizQuestionsHandler)
		quizzes.GET("/:id/summary", ctrl.QuizSummaryHandler)
		quizzes.GET("/:id/pools", ctrl.ListPoolsHandler)
		quizzes.DELETE("/:id/pools/:poolId", ctrl.DeletePoolHandler)

		adminV1.POST("/pools", ctrl.CreatePoolHandler)
		adminV1.POST("/bank/questions", ctrl.CreateBankQuestionHandler)

		templates := adminV1.Group("/templates")
		templates.POST("", ctrl.CreateTemplateHandler)
		templates.GET("", ctrl.ListTemplatesHandler)
		templates.PATCH("/:id/status", ctrl.UpdateTemplateStatusHandler)
		templates.POST("/preview", ctrl.PreviewTemplateHandler)
		templates.POST("/publish", ctrl.PublishTemplateHandler)

		ai := adminV1.Group("/ai")
		ai.POST("/generate-items", ctrl.GenerateItemsHandler)
		ai.POST("/save-items", ctrl.SaveItemsHandler)

		adminV1.GET("/attempts/:id", ctrl.ReviewAttemptHandler)
		adminV1.POST("/links", ctrl.MintLinksHandler)
	}
}

// requireAdminKey gates every admin route on the X-Admin-Key header. An
// empty configured key disables the gate, for local development only.
func (ctrl *Controller) requireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctrl.adminKey == "" {
			c.Next()
			return
		}
		supplied := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(ctrl.adminKey)) != 1 {
			controller.WriteError(c, apperr.New(apperr.KindUnauthorized, "invalid admin key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CreateQuizHandler godoc
// @Summary Create a quiz
// @Description Create a quiz, optionally with its static questions
// @Tags admin
// @Accept json
// @Produce json
// @Param quiz body dto.QuizCreateRequest true "Quiz data"
// @Success 201 {object} dto.QuizResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Router /admin/quizzes [post]
func (ctrl *Controller) CreateQuizHandler(c *gin.Context) {
	var req dto.QuizCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.quizSvc.CreateQuiz(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListQuizzesHandler godoc
// @Summary List quizzes
// @Tags admin
// @Produce json
// @Success 200 {array} dto.QuizResponse
// @Router /admin/quizzes [get]
func (ctrl *Controller) ListQuizzesHandler(c *gin.Context) {
	resp, err := ctrl.quizSvc.ListQuizzes()
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateQuizHandler godoc
// @Summary Generate a quiz from weighted bank sources
// @Description Weighted-sample curated bank question sets into a new static quiz
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.QuizGenerateRequest true "Generation sources"
// @Success 201 {object} dto.QuizResponse
// @Failure 422 {object} dto.ErrorResponse "Unknown bank questions or empty result"
// @Router /admin/quizzes/generate [post]
func (ctrl *Controller) GenerateQuizHandler(c *gin.Context) {
	var req dto.QuizGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.quizSvc.GenerateFromSources(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddQuizQuestionsHandler godoc
// @Summary Append static questions to a quiz
// @Description Add questions to an existing quiz; started attempts keep their frozen snapshots
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param questions body dto.QuizQuestionsAddRequest true "Questions to append"
// @Success 201 {object} dto.QuizResponse
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Router /admin/quizzes/{id}/questions [post]
func (ctrl *Controller) AddQuizQuestionsHandler(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.QuizQuestionsAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.quizSvc.AddQuestions(quizID, req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// QuizSummaryHandler godoc
// @Summary Scoring summary for a quiz
// @Tags admin
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} dto.QuizSummaryResponse
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /admin/quizzes/{id}/summary [get]
func (ctrl *Controller) QuizSummaryHandler(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := ctrl.quizSvc.Summary(quizID)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePoolHandler godoc
// @Summary Attach a draw rule to a quiz
// @Tags admin
// @Accept json
// @Produce json
// @Param pool body dto.PoolCreateRequest true "Pool data"
// @Success 201 {object} dto.PoolResponse
// @Failure 404 {object} dto.ErrorResponse "Quiz or topic not found"
// @Router /admin/pools [post]
func (ctrl *Controller) CreatePoolHandler(c *gin.Context) {
	var req dto.PoolCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.quizSvc.AddPool(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListPoolsHandler godoc
// @Summary List a quiz's pools with availability counts
// @Tags admin
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {array} dto.PoolResponse
// @Router /admin/quizzes/{id}/pools [get]
func (ctrl *Controller) ListPoolsHandler(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := ctrl.quizSvc.ListPools(quizID)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeletePoolHandler godoc
// @Summary Delete a pool from a quiz
// @Tags admin
// @Param id path int true "Quiz ID"
// @Param poolId path int true "Pool ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "Pool not found on quiz"
// @Router /admin/quizzes/{id}/pools/{poolId} [delete]
func (ctrl *Controller) DeletePoolHandler(c *gin.Context) {
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	poolID, ok := pathID(c, "poolId")
	if !ok {
		return
	}
	if err := ctrl.quizSvc.DeletePool(quizID, poolID); err != nil {
		controller.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateBankQuestionHandler godoc
// @Summary Add a question to the bank
// @Tags admin
// @Accept json
// @Produce json
// @Param question body dto.BankQuestionCreateRequest true "Bank question data"
// @Success 201 {object} model.BankQuestion
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Router /admin/bank/questions [post]
func (ctrl *Controller) CreateBankQuestionHandler(c *gin.Context) {
	var req dto.BankQuestionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	question, err := ctrl.quizSvc.AddBankQuestion(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// CreateTemplateHandler godoc
// @Summary Create a question template
// @Description Declare a parametric template; variables and placeholders are validated strictly
// @Tags admin
// @Accept json
// @Produce json
// @Param template body dto.TemplateCreateRequest true "Template data"
// @Success 201 {object} dto.TemplateResponse
// @Failure 422 {object} dto.ErrorResponse "Variable or placeholder validation failed"
// @Router /admin/templates [post]
func (ctrl *Controller) CreateTemplateHandler(c *gin.Context) {
	var req dto.TemplateCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.templateSvc.Create(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListTemplatesHandler godoc
// @Summary List templates
// @Tags admin
// @Produce json
// @Success 200 {array} dto.TemplateResponse
// @Router /admin/templates [get]
func (ctrl *Controller) ListTemplatesHandler(c *gin.Context) {
	resp, err := ctrl.templateSvc.List()
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateTemplateStatusHandler godoc
// @Summary Move a template through its lifecycle
// @Tags admin
// @Accept json
// @Param id path int true "Template ID"
// @Param status body dto.TemplateStatusRequest true "New status"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Router /admin/templates/{id}/status [patch]
func (ctrl *Controller) UpdateTemplateStatusHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.TemplateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	if err := ctrl.templateSvc.UpdateStatus(id, req.Status); err != nil {
		controller.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PreviewTemplateHandler godoc
// @Summary Preview template expansions
// @Description Expand up to 10 samples with values, options and the correct answer visible
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.TemplatePreviewRequest true "Template and sample count"
// @Success 200 {object} dto.TemplatePreviewResponse
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Router /admin/templates/preview [post]
func (ctrl *Controller) PreviewTemplateHandler(c *gin.Context) {
	var req dto.TemplatePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.templateSvc.Preview(c.Request.Context(), req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PublishTemplateHandler godoc
// @Summary Publish a template into the bank
// @Description Snapshot a template version and expand unique variants into bank questions
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.TemplatePublishRequest true "Template, count and optional seed"
// @Success 201 {object} dto.TemplatePublishResponse
// @Failure 404 {object} dto.ErrorResponse "Template not found"
// @Failure 422 {object} dto.ErrorResponse "No unique variants produced"
// @Router /admin/templates/publish [post]
func (ctrl *Controller) PublishTemplateHandler(c *gin.Context) {
	var req dto.TemplatePublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.templateSvc.Publish(c.Request.Context(), req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GenerateItemsHandler godoc
// @Summary Draft bank questions with the generative backend
// @Description Generate up to 20 validated draft items for a topic; nothing is persisted
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.GenerateItemsRequest true "Topic, difficulty and item count"
// @Success 200 {object} dto.GenerateItemsResponse
// @Failure 422 {object} dto.ErrorResponse "Model output failed validation"
// @Failure 503 {object} dto.ErrorResponse "Generative backend unavailable"
// @Router /admin/ai/generate-items [post]
func (ctrl *Controller) GenerateItemsHandler(c *gin.Context) {
	var req dto.GenerateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.itemGenSvc.GenerateItems(c.Request.Context(), req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveItemsHandler godoc
// @Summary Save reviewed draft items into the bank
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.SaveItemsRequest true "Topic and reviewed items"
// @Success 201 {object} dto.SaveItemsResponse
// @Failure 422 {object} dto.ErrorResponse "Item validation failed"
// @Router /admin/ai/save-items [post]
func (ctrl *Controller) SaveItemsHandler(c *gin.Context) {
	var req dto.SaveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.itemGenSvc.SaveItems(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ReviewAttemptHandler godoc
// @Summary Review an attempt with its graded answers
// @Description Unmasked attempt detail: the frozen snapshot joined with persisted answers
// @Tags admin
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptReviewResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /admin/attempts/{id} [get]
func (ctrl *Controller) ReviewAttemptHandler(c *gin.Context) {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := ctrl.gradingSvc.Review(attemptID)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MintLinksHandler godoc
// @Summary Mint student access links
// @Description Mint one tokenized link per email and optionally mail them out
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.MintLinksRequest true "Quiz, emails and link options"
// @Success 201 {object} dto.MintLinksResponse
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /admin/links [post]
func (ctrl *Controller) MintLinksHandler(c *gin.Context) {
	var req dto.MintLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.WriteError(c, apperr.Wrap(apperr.KindInvalidRequest, "invalid request body", err))
		return
	}
	resp, err := ctrl.linkSvc.MintLinks(req)
	if err != nil {
		controller.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		controller.WriteError(c, apperr.Newf(apperr.KindInvalidRequest, "invalid %s format", name))
		return 0, false
	}
	return uint(id), true
}
