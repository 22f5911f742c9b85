package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/datanorm"
	"github.com/ignite/marketpulse/internal/pkg/httputil"
	"github.com/ignite/marketpulse/internal/pkg/validate"
	"github.com/ignite/marketpulse/internal/sources"
)

// maxUploadBytes caps an uploaded export.
const maxUploadBytes = 32 << 20

// columnsRequest carries an export to classify.
type columnsRequest struct {
	Dataset *datanorm.Dataset `json:"dataset" validate:"required"`
}

// matchRequest selects a campaign's rows in an export.
type matchRequest struct {
	Dataset        *datanorm.Dataset `json:"dataset" validate:"required"`
	Campaign       string            `json:"campaign"`
	Platform       string            `json:"platform"`
	CampaignColumn *int              `json:"campaign_column" validate:"omitempty,gte=0"`
	PlatformColumn *int              `json:"platform_column" validate:"omitempty,gte=0"`
}

func (m matchRequest) options() analytics.MatchOptions {
	return analytics.MatchOptions{CampaignColumn: m.CampaignColumn, PlatformColumn: m.PlatformColumn}
}

// reportRequest runs the full pipeline over an ad-hoc export.
type reportRequest struct {
	matchRequest
	ConversionValue *float64           `json:"conversion_value" validate:"omitempty,gt=0"`
	Targets         map[string]float64 `json:"targets" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
	Previous        analytics.Metrics  `json:"previous"`
}

// projectionRequest estimates a spend increase.
type projectionRequest struct {
	Metrics     analytics.Metrics `json:"metrics" validate:"required"`
	IncreasePct float64           `json:"increase_pct" validate:"gte=0,lte=1000"`
}

// decodeValid decodes and validates a request body, writing the error
// response itself.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !httputil.Decode(w, r, dst) {
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httputil.ValidationFailed(w, err)
		return false
	}
	return true
}

// ClassifyColumns infers the type of every column of an export.
//
//	POST /api/analytics/columns
func (h *Handlers) ClassifyColumns(w http.ResponseWriter, r *http.Request) {
	var req columnsRequest
	if !decodeValid(w, r, &req) {
		return
	}
	httputil.OK(w, map[string]any{"columns": h.engine.ClassifyColumns(req.Dataset)})
}

// MatchRows returns the rows of an export that belong to a campaign.
//
//	POST /api/analytics/match
func (h *Handlers) MatchRows(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeValid(w, r, &req) {
		return
	}
	httputil.OK(w, h.engine.MatchRows(req.Dataset, req.Campaign, req.Platform, req.options()))
}

// AnalyzeDataset runs the full report over an export sent as JSON.
//
//	POST /api/analytics/report
func (h *Handlers) AnalyzeDataset(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !decodeValid(w, r, &req) {
		return
	}
	httputil.OK(w, h.engine.Analyze(req.analysis()))
}

func (req reportRequest) analysis() analytics.AnalysisRequest {
	a := analytics.AnalysisRequest{
		Dataset:         req.Dataset,
		CampaignName:    req.Campaign,
		PlatformID:      req.Platform,
		Match:           req.options(),
		ConversionValue: req.ConversionValue,
		Targets:         req.Targets,
	}
	if len(req.Previous) > 0 {
		a.History = &analytics.HistoricalComparison{Label: "previous", Previous: req.Previous}
	}
	return a
}

// AnalyzeUpload runs the full report over an uploaded CSV or XLSX file.
//
//	POST /api/analytics/upload  (multipart: file, campaign, platform, sheet)
func (h *Handlers) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	format, err := sources.FormatOf(header.Filename)
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusUnsupportedMediaType, "unsupported_format",
			fmt.Sprintf("%s: upload a .csv or .xlsx export", header.Filename), nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.BadRequest(w, "could not read upload: "+err.Error())
		return
	}
	var src sources.Source = sources.NewCSVBytes(header.Filename, data)
	if format == sources.FormatXLSX {
		src = sources.NewXLSXBytes(header.Filename, data, r.FormValue("sheet"))
	}
	ds, err := src.Fetch(r.Context())
	if err != nil {
		httputil.BadRequest(w, "could not read export: "+err.Error())
		return
	}

	httputil.OK(w, h.engine.Analyze(analytics.AnalysisRequest{
		Dataset:      ds,
		CampaignName: strings.TrimSpace(r.FormValue("campaign")),
		PlatformID:   strings.TrimSpace(r.FormValue("platform")),
	}))
}

// ProjectScaling estimates the outcome of a spend increase.
//
//	POST /api/analytics/projection
func (h *Handlers) ProjectScaling(w http.ResponseWriter, r *http.Request) {
	var req projectionRequest
	if !decodeValid(w, r, &req) {
		return
	}
	pct := req.IncreasePct
	if pct == 0 {
		pct = h.scalingPct
	}
	proj, err := h.engine.ProjectScaling(req.Metrics, pct)
	switch {
	case errors.Is(err, analytics.ErrInsufficientData), errors.Is(err, analytics.ErrInvalidIncrease):
		httputil.ErrorWithCode(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error(), nil)
		return
	case err != nil:
		respondSafeError(w, http.StatusInternalServerError, err)
		return
	}
	httputil.OK(w, proj)
}
