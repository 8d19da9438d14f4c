package httpapi

import (
	"net/http"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// FormLinkHandler 表单链接 /api/v1/teams/{teamID}/form-links/...
type FormLinkHandler struct {
	links  *service.FormLinkService
	logger *zap.Logger
}

func NewFormLinkHandler(links *service.FormLinkService, logger *zap.Logger) *FormLinkHandler {
	return &FormLinkHandler{links: links, logger: logger}
}

func (h *FormLinkHandler) Serve(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.List(w, r, sess, teamID)
	case len(rest) == 0 && r.Method == http.MethodPost:
		h.Create(w, r, sess, teamID)
	case len(rest) == 1 && r.Method == http.MethodGet:
		h.Get(w, r, sess, teamID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodPut:
		h.Update(w, r, sess, teamID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		h.Delete(w, r, sess, teamID, rest[0])
	case len(rest) <= 1:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

func (h *FormLinkHandler) List(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	links, err := h.links.List(r.Context(), sess, teamID)
	if err != nil {
		writeError(w, h.logger, "list form links", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(links))
}

func (h *FormLinkHandler) Create(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req teamRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	l, err := h.links.Create(r.Context(), sess, teamID, req.Name)
	if err != nil {
		writeError(w, h.logger, "create form link", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(l))
}

func (h *FormLinkHandler) Get(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, linkID string) {
	l, err := h.links.Get(r.Context(), sess, teamID, linkID)
	if err != nil {
		writeError(w, h.logger, "get form link", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(l))
}

// Update accepts {"name": ..., "active": ...}; either may be omitted.
func (h *FormLinkHandler) Update(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, linkID string) {
	var req service.UpdateFormLinkRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	l, err := h.links.Update(r.Context(), sess, teamID, linkID, req)
	if err != nil {
		writeError(w, h.logger, "update form link", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(l))
}

func (h *FormLinkHandler) Delete(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, linkID string) {
	if err := h.links.Delete(r.Context(), sess, teamID, linkID); err != nil {
		writeError(w, h.logger, "delete form link", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
