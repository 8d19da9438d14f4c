package httpapi

import (
	"net/http"

	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// PublicHandler 公开申请表单（无需登录）
type PublicHandler struct {
	submissions *service.SubmissionService
	logger      *zap.Logger
}

func NewPublicHandler(submissions *service.SubmissionService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{submissions: submissions, logger: logger}
}

// Form returns what the applicant page needs: team name, link name and the
// field list.
func (h *PublicHandler) Form(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form, err := h.submissions.PublicForm(r.Context(), q.Get("team"), q.Get("link"))
	if err != nil {
		writeError(w, h.logger, "public form", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(form))
}

func (h *PublicHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	sub, err := h.submissions.Submit(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "submit application", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{
		"submission_id": sub.SubmissionID,
		"status":        string(sub.Status),
	}))
}
