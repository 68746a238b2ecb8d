package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bibbank/fraud-detection/internal/application/dto"
	"github.com/bibbank/fraud-detection/internal/application/usecase"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
	"github.com/bibbank/fraud-detection/internal/infrastructure/csvtable"
)

const (
	maxPredictBytes = 1 << 20
	multipartMemory = 8 << 20
	uploadField     = "file"
)

// Handler serves the scoring endpoints.
type Handler struct {
	predict        *usecase.PredictTransaction
	scoreBatch     *usecase.ScoreBatch
	labels         valueobject.DetectorLabels
	banner         string
	maxUploadBytes int64
}

// HandlerOptions configures the scoring endpoints.
type HandlerOptions struct {
	Banner         string
	MaxUploadBytes int64
}

// NewHandler creates the scoring handler.
func NewHandler(
	predict *usecase.PredictTransaction,
	scoreBatch *usecase.ScoreBatch,
	labels valueobject.DetectorLabels,
	opts HandlerOptions,
) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Banner == "" {
		opts.Banner = "Fraud Detection API is running"
	}
	return &Handler{
		predict:        predict,
		scoreBatch:     scoreBatch,
		labels:         labels,
		banner:         opts.Banner,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// BannerResponse is returned by GET /.
type BannerResponse struct {
	Message string `json:"message"`
}

// RegisterRoutes registers the scoring endpoints on the provided ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Banner)
	mux.HandleFunc("POST /predict", h.Predict)
	mux.HandleFunc("POST /upload", h.Upload)
}

// Banner answers that the service is up.
func (h *Handler) Banner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, BannerResponse{Message: h.banner})
}

// Predict scores one JSON transaction.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req dto.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBytes))
	if err := dec.Decode(&req); err != nil {
		recordFailure(r, err)
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.predict.Execute(r.Context(), req)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Upload scores a multipart CSV upload. With ?format=csv the analysed rows
// are returned as a CSV download.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		h.rejectTooLarge(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rejectTooLarge(w, r)
			return
		}
		recordFailure(r, err)
		writeError(w, r, http.StatusBadRequest, "multipart form expected")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", uploadField))
		return
	}
	defer file.Close()

	report, err := h.scoreBatch.Execute(r.Context(), dto.ScoreBatchRequest{
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		name := strings.TrimSuffix(filepath.Base(report.Filename()), filepath.Ext(report.Filename()))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"_analysed.csv"))
		if err := csvtable.WriteReport(w, report, h.labels); err != nil {
			recordFailure(r, fmt.Errorf("failed to write report: %w", err))
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.FromBatchReport(report, h.labels))
}

func (h *Handler) rejectTooLarge(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
}
