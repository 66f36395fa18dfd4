package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/bibbank/profileguard/internal/application/dto"
	"github.com/bibbank/profileguard/internal/application/usecase"
	"github.com/bibbank/profileguard/internal/domain/model"
)

// AssessmentIDHeader carries the stored assessment ID on scoring responses.
const AssessmentIDHeader = "X-Assessment-ID"

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 64 << 10

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AssessmentHandler serves the scoring and history endpoints.
type AssessmentHandler struct {
	assessAccount  *usecase.AssessAccount
	analyzeProfile *usecase.AnalyzeProfile
	getAssessment  *usecase.GetAssessment
	listRecent     *usecase.ListRecentAssessments
	maxBodyBytes   int64
	logger         *slog.Logger
}

// NewAssessmentHandler creates the handler. The history use cases may be nil,
// in which case the history endpoints answer 503.
func NewAssessmentHandler(
	assessAccount *usecase.AssessAccount,
	analyzeProfile *usecase.AnalyzeProfile,
	getAssessment *usecase.GetAssessment,
	listRecent *usecase.ListRecentAssessments,
	maxBodyBytes int64,
	logger *slog.Logger,
) *AssessmentHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &AssessmentHandler{
		assessAccount:  assessAccount,
		analyzeProfile: analyzeProfile,
		getAssessment:  getAssessment,
		listRecent:     listRecent,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the API routes on the provided ServeMux.
func (h *AssessmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/predict", h.Predict)
	mux.HandleFunc("POST /api/v1/predict/quick", h.PredictQuick)
	mux.HandleFunc("POST /api/v1/profiles/analyze", h.AnalyzeProfile)
	mux.HandleFunc("GET /api/v1/assessments/{id}", h.GetAssessment)
	mux.HandleFunc("GET /api/v1/assessments", h.ListAssessments)
}

// Predict scores a feature payload, honouring include_qualitative_analysis.
func (h *AssessmentHandler) Predict(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, false)
}

// PredictQuick scores a feature payload without the qualitative analysis.
func (h *AssessmentHandler) PredictQuick(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, true)
}

func (h *AssessmentHandler) predict(w http.ResponseWriter, r *http.Request, quick bool) {
	var payload map[string]any
	if !h.decode(w, r, &payload) {
		return
	}
	if payload == nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	resp, err := h.assessAccount.Execute(r.Context(), dto.AssessAccountRequest{Payload: payload, Quick: quick})
	if err != nil {
		h.writeUseCaseError(r.Context(), w, err)
		return
	}
	w.Header().Set(AssessmentIDHeader, resp.AssessmentID.String())
	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeProfile derives features from a raw profile and scores them.
func (h *AssessmentHandler) AnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalyzeProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.analyzeProfile.Execute(r.Context(), req)
	if err != nil {
		h.writeUseCaseError(r.Context(), w, err)
		return
	}
	w.Header().Set(AssessmentIDHeader, resp.AssessmentID.String())
	writeJSON(w, http.StatusOK, resp)
}

// GetAssessment returns one stored assessment.
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	if h.getAssessment == nil {
		writeError(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}

	record, err := h.getAssessment.Execute(r.Context(), dto.GetAssessmentRequest{AssessmentID: id})
	if err != nil {
		h.writeUseCaseError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListAssessments returns recent assessments, newest first.
func (h *AssessmentHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	if h.listRecent == nil {
		writeError(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}

	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	records, err := h.listRecent.Execute(r.Context(), dto.ListRecentRequest{Offset: offset, Limit: limit})
	if err != nil {
		h.writeUseCaseError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": records})
}

// queryInt reads an optional non-negative integer query parameter, writing a
// 400 when it is malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// decode reads a JSON body into v, writing a 400 or 413 on failure.
func (h *AssessmentHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "malformed JSON: trailing data after object")
		return false
	}
	return true
}

func (h *AssessmentHandler) writeUseCaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, model.ErrAssessmentNotFound):
		writeError(w, http.StatusNotFound, "assessment not found")
	default:
		h.logger.ErrorContext(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
