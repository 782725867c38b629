package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// UpdateReportRequest is the body of PUT /api/reports/{rid}.
type UpdateReportRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ReportsHandler handles evaluation report endpoints.
type ReportsHandler struct {
	reportService  services.ReportService
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reportService services.ReportService, projectService services.ProjectService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{
		reportService:  reportService,
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the report routes on the given mux.
func (h *ReportsHandler) RegisterRoutes(mux *http.ServeMux, authed, admin RouteWrapper) {
	mux.HandleFunc("POST /api/projects/{pid}/reports", admin(h.Generate))
	mux.HandleFunc("GET /api/projects/{pid}/reports", authed(h.List))
	mux.HandleFunc("GET /api/reports/{rid}", authed(h.Get))
	mux.HandleFunc("PUT /api/reports/{rid}", admin(h.Update))
	mux.HandleFunc("POST /api/reports/{rid}/finalize", admin(h.Finalize))
	mux.HandleFunc("DELETE /api/reports/{rid}", admin(h.Delete))
}

// Generate handles POST /api/projects/{pid}/reports.
// Drafts a new report with the configured LLM; 503 when none is configured.
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.reportService.Generate(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "generate report")
		return
	}

	h.logger.Info("Report generated",
		zap.String("project_id", projectID.String()),
		zap.String("report_id", report.ID.String()))
	writeData(w, h.logger, http.StatusCreated, report)
}

// List handles GET /api/projects/{pid}/reports
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := authorizeProject(w, r, h.projectService, h.logger)
	if !ok {
		return
	}

	reports, err := h.reportService.List(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list reports")
		return
	}
	writeData(w, h.logger, http.StatusOK, reports)
}

// Get handles GET /api/reports/{rid}
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	reportID, ok := ParseReportID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.reportService.Get(r.Context(), reportID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get report")
		return
	}
	if _, err := h.projectService.Get(r.Context(), report.ProjectID); err != nil {
		writeServiceError(w, h.logger, err, "load project")
		return
	}
	writeData(w, h.logger, http.StatusOK, report)
}

// Update handles PUT /api/reports/{rid}. Only drafts can be edited.
func (h *ReportsHandler) Update(w http.ResponseWriter, r *http.Request) {
	reportID, ok := ParseReportID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateReportRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	report, err := h.reportService.UpdateContent(r.Context(), reportID, req.Title, req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err, "update report")
		return
	}
	writeData(w, h.logger, http.StatusOK, report)
}

// Finalize handles POST /api/reports/{rid}/finalize
func (h *ReportsHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	reportID, ok := ParseReportID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.reportService.Finalize(r.Context(), reportID); err != nil {
		writeServiceError(w, h.logger, err, "finalize report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/reports/{rid}
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reportID, ok := ParseReportID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.reportService.Delete(r.Context(), reportID); err != nil {
		writeServiceError(w, h.logger, err, "delete report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
