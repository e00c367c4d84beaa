package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ariel-frischer/vistoria/internal/app"
	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/export"
	"github.com/ariel-frischer/vistoria/internal/report"
	"github.com/ariel-frischer/vistoria/internal/retry"
	"github.com/ariel-frischer/vistoria/internal/store"
)

// writeAppError maps service errors to HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var unknown *app.UnknownModuleError
	var exhausted *retry.RetryExhaustedError
	switch {
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Suggestions: unknown.Suggestions})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, checklist.ErrItemNotFound),
		errors.Is(err, checklist.ErrActionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checklist.ErrPhotoRequired), errors.Is(err, app.ErrNoValues),
		errors.Is(err, checklist.ErrInvalidMeasurement):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, checklist.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, export.ErrNotRetriable), errors.As(err, &exhausted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) listInspections(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Store.ListInspections(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if list == nil {
		list = []store.Inspection{}
	}
	writeJSON(w, http.StatusOK, list)
}

type createInspectionRequest struct {
	ClientName string `json:"client_name"`
	WorkSite   string `json:"work_site"`
	CreatedBy  string `json:"created_by"`
}

func (s *Server) createInspection(w http.ResponseWriter, r *http.Request) {
	var req createInspectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.app.Store.CreateInspection(r.Context(), strings.TrimSpace(req.ClientName),
		strings.TrimSpace(req.WorkSite), req.CreatedBy)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) getInspection(w http.ResponseWriter, r *http.Request) {
	in, err := s.app.Store.GetInspection(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) validateInspection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.app.Store.GetInspection(r.Context(), id); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Validator.ValidateFinalReport(r.Context(), id))
}

type reportRequest struct {
	Mode            string   `json:"mode"`
	SendEmail       bool     `json:"send_email"`
	RecipientEmails []string `json:"recipient_emails"`
	IncludeJSON     *bool    `json:"include_json"`
	IncludeWorkbook *bool    `json:"include_workbook"`
	UserID          string   `json:"user_id"`
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reportRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Mode != "" && !report.Mode(req.Mode).IsValid() {
		writeError(w, http.StatusBadRequest, "invalid mode: "+req.Mode)
		return
	}
	if _, err := s.app.Store.GetInspection(r.Context(), id); err != nil {
		s.writeAppError(w, err)
		return
	}

	opts := s.app.ExportOptions(req.Mode)
	opts.SendEmail = req.SendEmail
	opts.RecipientEmails = req.RecipientEmails
	opts.UserID = req.UserID
	if req.IncludeJSON != nil {
		opts.IncludeJSON = *req.IncludeJSON
	}
	if req.IncludeWorkbook != nil {
		opts.IncludeWorkbook = *req.IncludeWorkbook
	}

	res := s.app.Export(r.Context(), id, opts)
	writeJSON(w, reportStatus(res), res)
}

func reportStatus(res export.Result) int {
	switch {
	case res.Success:
		return http.StatusCreated
	case len(res.CriticalErrors) > 0 || len(res.ValidationErrors) > 0:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listExports(w http.ResponseWriter, r *http.Request) {
	logs, err := s.app.Store.ListExportLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if logs == nil {
		logs = []store.ExportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) retryDelivery(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.RetryDelivery(r.Context(), r.PathValue("log"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	status := http.StatusOK
	if res.EmailError != "" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (s *Server) listChecklist(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.Checklist.Items(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if items == nil {
		items = []checklist.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

type executionRequest struct {
	Observation   string   `json:"observation"`
	MeasuredValue *float64 `json:"measured_value"`
	Photos        []string `json:"photos"`
	Actor         string   `json:"actor"`
	NotApplicable bool     `json:"not_applicable"`
	Nonconforming bool     `json:"nonconforming"`
}

func (s *Server) executeItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req executionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.app.Store.GetInspection(r.Context(), id); err != nil {
		s.writeAppError(w, err)
		return
	}
	exec, err := s.app.Checklist.ExecuteItem(r.Context(), id, r.PathValue("item"), checklist.ExecutionInput{
		Observation:   req.Observation,
		MeasuredValue: req.MeasuredValue,
		PhotoURIs:     req.Photos,
		Actor:         req.Actor,
		NotApplicable: req.NotApplicable,
		Nonconforming: req.Nonconforming,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exec)
}

func (s *Server) updateCorrectiveAction(w http.ResponseWriter, r *http.Request) {
	var req checklist.ActionUpdate
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action, err := s.app.Checklist.ApplyActionUpdate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (s *Server) setModule(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := decodeBody(w, r, &values); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.app.SetModule(r.Context(), r.PathValue("id"), r.PathValue("module"), values)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
