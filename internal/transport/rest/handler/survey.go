package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"surveyassist/internal/model"
	"surveyassist/internal/service"
	"surveyassist/internal/transport/rest/middleware"
)

// SurveyHandler handles session and survey flow endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
	logger    *slog.Logger
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService, logger *slog.Logger) *SurveyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurveyHandler{surveySvc: surveySvc, logger: logger}
}

// CreateSession handles POST /v1/sessions
// @Summary Create a respondent session
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body model.CreateSessionRequest false "respondent"
// @Success 201 {object} model.CreateSessionResponse
// @Router /sessions [post]
func (h *SurveyHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.surveySvc.CreateSession(r.Context(), req.RespondentID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Start handles POST /v1/survey/start
// @Summary Start or resume the survey
// @Tags survey
// @Produce json
// @Security BearerAuth
// @Success 200 {object} flow.Step
// @Router /survey/start [post]
func (h *SurveyHandler) Start(w http.ResponseWriter, r *http.Request) {
	step, err := h.surveySvc.Start(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Current handles GET /v1/survey/current
// @Summary Pending question
// @Tags survey
// @Produce json
// @Security BearerAuth
// @Success 200 {object} flow.Step
// @Router /survey/current [get]
func (h *SurveyHandler) Current(w http.ResponseWriter, r *http.Request) {
	step, err := h.surveySvc.Current(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// SubmitAnswer handles POST /v1/survey/answers
// @Summary Answer the pending question
// @Tags survey
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.SubmitAnswerRequest true "answer"
// @Success 200 {object} flow.Step
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /survey/answers [post]
func (h *SurveyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	step, err := h.surveySvc.Submit(r.Context(), middleware.GetSessionID(r.Context()), req.QuestionID, req.Value)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Summary handles GET /v1/survey/summary
// @Summary Answers so far
// @Tags survey
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]model.AnsweredQuestion
// @Router /survey/summary [get]
func (h *SurveyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.surveySvc.Summary(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"answers": summary})
}

// GetResult handles GET /v1/results/{sessionId}
// @Summary Stored result of a completed session
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "session id"
// @Success 200 {object} model.SurveyResult
// @Failure 404 {object} ErrorResponse
// @Router /results/{sessionId} [get]
func (h *SurveyHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.surveySvc.Result(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListResults handles GET /v1/results?respondentId=
// @Summary Stored results of one respondent, newest first
// @Tags results
// @Produce json
// @Security BearerAuth
// @Param respondentId query string true "respondent id"
// @Success 200 {object} map[string][]model.SurveyResult
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /results [get]
func (h *SurveyHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	respondentID := strings.TrimSpace(r.URL.Query().Get("respondentId"))
	if respondentID == "" {
		writeError(w, http.StatusBadRequest, "respondentId is required")
		return
	}
	results, err := h.surveySvc.ResultsForRespondent(r.Context(), respondentID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
