package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/chatgpt"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/services"
	"github.com/Ayash-Bera/webgpt-analyzer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxDocumentBytes = 32 << 20

type AnalysisHandler struct {
	analysisService *services.AnalysisService
	registry        *services.RunRegistry
	logger          *logrus.Logger
}

func NewAnalysisHandler(
	analysisService *services.AnalysisService,
	registry *services.RunRegistry,
	logger *logrus.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		registry:        registry,
		logger:          logger,
	}
}

// HandleAnalyze fetches and analyzes the conversation behind a page URL.
func (h *AnalysisHandler) HandleAnalyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid analyze request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	userSession := h.getUserSession(c)

	h.logger.WithFields(logrus.Fields{
		"user_session": userSession,
		"has_cookie":   req.SessionCookie != "",
		"ip_address":   c.ClientIP(),
	}).Info("Processing analyze request")

	ctx, release := h.registry.Begin(c.Request.Context(), userSession)
	defer release()

	resp, err := h.analysisService.AnalyzePage(ctx, req, userSession)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Analysis completed", resp)
}

// HandleAnalyzeDocument analyzes a conversation document posted as the body.
func (h *AnalysisHandler) HandleAnalyzeDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes)
	raw, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Document too large or unreadable", err)
		return
	}
	if len(raw) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Document body cannot be empty", nil)
		return
	}

	userSession := h.getUserSession(c)

	ctx, release := h.registry.Begin(c.Request.Context(), userSession)
	defer release()

	resp, err := h.analysisService.AnalyzeDocument(ctx, raw, userSession)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Analysis completed", resp)
}

// HandleRecentRuns lists the run log, optionally for one conversation.
func (h *AnalysisHandler) HandleRecentRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var (
		runs []models.AnalysisRun
		err  error
	)
	if conversationID := c.Query("conversation_id"); conversationID != "" {
		runs, err = h.analysisService.ConversationRuns(conversationID, limit)
	} else {
		runs, err = h.analysisService.RecentRuns(limit)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Runs retrieved", runs)
}

// HandleGetRun returns one run log row by run ID.
func (h *AnalysisHandler) HandleGetRun(c *gin.Context) {
	run, err := h.analysisService.GetRun(c.Param("run_id"))
	if errors.Is(err, services.ErrRunNotFound) {
		utils.CodedErrorResponse(c, http.StatusNotFound, "RUN_NOT_FOUND", "No analysis run with that ID.")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get run", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Run retrieved", run)
}

// writeError renders a run failure as a single message with a status code
// that matches its cause.
func (h *AnalysisHandler) writeError(c *gin.Context, err error) {
	if fe, ok := chatgpt.AsFetchError(err); ok {
		utils.CodedErrorResponse(c, fetchErrorStatus(fe), string(fe.Code), fe.Error())
		return
	}

	switch {
	case errors.Is(err, services.ErrSuperseded):
		utils.CodedErrorResponse(c, http.StatusConflict, "SUPERSEDED", "A newer analysis replaced this one.")
	case errors.Is(err, services.ErrInvalidDocument):
		utils.CodedErrorResponse(c, http.StatusBadRequest, "INVALID_DOCUMENT", "The conversation document is not valid JSON.")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Analysis failed", err)
	}
}

func fetchErrorStatus(fe *chatgpt.FetchError) int {
	switch fe.Code {
	case chatgpt.CodeMissingConversationID:
		return http.StatusBadRequest
	case chatgpt.CodeMissingAccessToken:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// Helper methods

func (h *AnalysisHandler) getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); session != "" {
		return session
	}

	// Generate session based on IP + User-Agent (basic fingerprinting)
	userAgent := c.GetHeader("User-Agent")
	clientIP := c.ClientIP()

	return utils.GenerateSessionID(clientIP + userAgent)
}
