package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
)

// ResultHandler serves the questionnaire and result statistics
type ResultHandler struct {
	statsService service.StatisticsService
	logger       *zap.Logger
}

// NewResultHandler creates a new result handler
func NewResultHandler(statsService service.StatisticsService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// Questions lists the questionnaire
// @Summary List questions
// @Tags results
// @Produce json
// @Success 200 {object} dto.QuestionsResponse
// @Router /questions [get]
func (h *ResultHandler) Questions(c *gin.Context) {
	c.JSON(http.StatusOK, dto.QuestionsResponse{Questions: mbti.Questions()})
}

// Submit records a finished test
// @Summary Submit a result
// @Tags results
// @Accept json
// @Produce json
// @Param request body dto.SubmitResultRequest true "Result"
// @Success 200 {object} dto.SubmitResultResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /results/submit [post]
func (h *ResultHandler) Submit(c *gin.Context) {
	var req dto.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	total, err := h.statsService.Submit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResultResponse{Success: true, TotalTests: total})
}

// Statistics returns per-type counts
// @Summary Result statistics
// @Tags results
// @Produce json
// @Success 200 {object} dto.StatisticsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /results/statistics [get]
func (h *ResultHandler) Statistics(c *gin.Context) {
	stats, err := h.statsService.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatisticsResponse{
		Stats:       stats.Counts,
		Total:       stats.Total,
		LastUpdated: stats.LastUpdated,
	})
}

// Score scores a full answer sheet without recording it
// @Summary Score answers
// @Tags results
// @Accept json
// @Produce json
// @Param request body dto.ScoreRequest true "Answers"
// @Success 200 {object} dto.ScoreResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /results/score [post]
func (h *ResultHandler) Score(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.statsService.Score(c.Request.Context(), req.Answers)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ScoreResponse{
		MBTIType:   result.Type,
		Tallies:    result.Tallies,
		Percentage: result.Percentage,
	})
}
