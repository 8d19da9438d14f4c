package httpapi

import (
	"net/http"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// SubmissionHandler 表单提交 /api/v1/teams/{teamID}/submissions/...
type SubmissionHandler struct {
	submissions *service.SubmissionService
	logger      *zap.Logger
}

func NewSubmissionHandler(submissions *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: logger}
}

func (h *SubmissionHandler) Serve(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.List(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "promote" && r.Method == http.MethodPost:
		h.Promote(w, r, sess, teamID)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		h.Delete(w, r, sess, teamID, rest[0])
	case len(rest) <= 1:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	subs, err := h.submissions.List(r.Context(), sess, teamID, r.URL.Query().Get("link"))
	if err != nil {
		writeError(w, h.logger, "list submissions", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(subs))
}

func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, id string) {
	if err := h.submissions.Delete(r.Context(), sess, teamID, id); err != nil {
		writeError(w, h.logger, "delete submission", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *SubmissionHandler) Promote(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req idsRequest
	if err := readBodyJSON(r, maxJSONBody*8, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	out, err := h.submissions.Promote(r.Context(), sess, teamID, req.IDs)
	if err != nil {
		writeError(w, h.logger, "promote submissions", err, out)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
