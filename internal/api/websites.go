package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"lighthouse_audit_service/internal/domain"
)

func (h *Handler) listWebsites(w http.ResponseWriter, r *http.Request) {
	websiteReq, auditReq, err := bothListRequests(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.websites.GetWebsites(r.Context(), websiteReq, auditReq)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// getWebsiteByURL expects the website URL as a single escaped path segment,
// e.g. /v1/websites/https%3A%2F%2Fexample.com.
func (h *Handler) getWebsiteByURL(w http.ResponseWriter, r *http.Request) {
	websiteURL := chi.URLParam(r, "websiteUrl")
	// chi routes on RawPath when net/url kept one; the param is then still escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(websiteURL)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: malformed website url: %v", domain.ErrInvalidRequest, err))
			return
		}
		websiteURL = unescaped
	}

	websiteReq, auditReq, err := bothListRequests(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	website, err := h.websites.GetWebsiteByURL(r.Context(), websiteURL, websiteReq, auditReq)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, website.Body())
}

func (h *Handler) getWebsiteByAuditID(w http.ResponseWriter, r *http.Request) {
	websiteReq, auditReq, err := bothListRequests(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	website, err := h.websites.GetWebsiteByAuditID(r.Context(), chi.URLParam(r, "auditId"), websiteReq, auditReq)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, website.Body())
}
