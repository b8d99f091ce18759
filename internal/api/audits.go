package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lighthouse_audit_service/internal/domain"
)

const maxRequestBody = 1 << 20

type triggerAuditRequest struct {
	URL     string              `json:"url"`
	Options domain.AuditOptions `json:"options"`
}

func (h *Handler) triggerAudit(w http.ResponseWriter, r *http.Request) {
	var req triggerAuditRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidRequest, err))
		return
	}

	audit, err := h.audits.TriggerAudit(r.Context(), req.URL, req.Options)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, audit.Body())
}

func (h *Handler) listAudits(w http.ResponseWriter, r *http.Request) {
	req, err := listRequestFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.audits.GetAudits(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// getAudit answers with the audit JSON when the client asks for it and with
// the rendered report page otherwise.
func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	audit, err := h.audits.GetAudit(r.Context(), chi.URLParam(r, "auditId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, audit.Body())
		return
	}

	page, err := renderReport(audit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (h *Handler) deleteAudit(w http.ResponseWriter, r *http.Request) {
	audit, err := h.audits.DeleteAudit(r.Context(), chi.URLParam(r, "auditId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, audit.Body())
}

func wantsJSON(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mediaType, _, _ := strings.Cut(part, ";")
			if strings.TrimSpace(mediaType) == "application/json" {
				return true
			}
		}
	}
	return false
}
