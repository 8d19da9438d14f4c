package httpapi

import (
	"net/http"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

const teamsPrefix = "/api/v1/teams"

// TeamHandler 分发 /api/v1/teams 下的全部请求
type TeamHandler struct {
	teams         *service.TeamService
	beneficiaries *BeneficiaryHandler
	formLinks     *FormLinkHandler
	submissions   *SubmissionHandler
	logger        *zap.Logger
}

func NewTeamHandler(teams *service.TeamService, beneficiaries *BeneficiaryHandler, formLinks *FormLinkHandler, submissions *SubmissionHandler, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teams:         teams,
		beneficiaries: beneficiaries,
		formLinks:     formLinks,
		submissions:   submissions,
		logger:        logger,
	}
}

// Serve routes /api/v1/teams[/{teamID}[/{resource}/...]].
func (h *TeamHandler) Serve(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	seg := pathSegments(r.URL.Path, teamsPrefix)
	if len(seg) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.ListTeams(w, r, sess)
		case http.MethodPost:
			h.CreateTeam(w, r, sess)
		default:
			methodNotAllowed(w)
		}
		return
	}

	teamID, rest := seg[0], seg[1:]
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.GetTeam(w, r, sess, teamID)
		case http.MethodPut:
			h.RenameTeam(w, r, sess, teamID)
		case http.MethodDelete:
			h.DeleteTeam(w, r, sess, teamID)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch rest[0] {
	case "members":
		h.serveMembers(w, r, sess, teamID, rest[1:])
	case "beneficiaries":
		h.beneficiaries.Serve(w, r, sess, teamID, rest[1:])
	case "form-links":
		h.formLinks.Serve(w, r, sess, teamID, rest[1:])
	case "submissions":
		h.submissions.Serve(w, r, sess, teamID, rest[1:])
	default:
		notFound(w)
	}
}

func (h *TeamHandler) serveMembers(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.ListMembers(w, r, sess, teamID)
	case len(rest) == 0 && r.Method == http.MethodPost:
		h.InviteMember(w, r, sess, teamID)
	case len(rest) == 1 && rest[0] == "accept" && r.Method == http.MethodPost:
		h.AcceptInvitation(w, r, sess, teamID)
	case len(rest) == 1 && r.Method == http.MethodPut:
		h.ChangeRole(w, r, sess, teamID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		h.RemoveMember(w, r, sess, teamID, rest[0])
	case len(rest) <= 1:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

type teamRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type roleRequest struct {
	Role domain.Role `json:"role"`
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	teams, err := h.teams.ListTeams(r.Context(), sess)
	if err != nil {
		writeError(w, h.logger, "list teams", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(teams))
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req teamRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	m, err := h.teams.CreateTeam(r.Context(), sess, req.Name)
	if err != nil {
		writeError(w, h.logger, "create team", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	m, err := h.teams.GetTeam(r.Context(), sess, teamID)
	if err != nil {
		writeError(w, h.logger, "get team", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *TeamHandler) RenameTeam(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req teamRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if err := h.teams.RenameTeam(r.Context(), sess, teamID, req.Name); err != nil {
		writeError(w, h.logger, "rename team", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	if err := h.teams.DeleteTeam(r.Context(), sess, teamID); err != nil {
		writeError(w, h.logger, "delete team", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	members, err := h.teams.ListMembers(r.Context(), sess, teamID)
	if err != nil {
		writeError(w, h.logger, "list members", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(members))
}

func (h *TeamHandler) InviteMember(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	var req inviteRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	m, err := h.teams.InviteMember(r.Context(), sess, teamID, req.Email, req.Role)
	if err != nil {
		writeError(w, h.logger, "invite member", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *TeamHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID string) {
	m, err := h.teams.AcceptInvitation(r.Context(), sess, teamID)
	if err != nil {
		writeError(w, h.logger, "accept invitation", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *TeamHandler) ChangeRole(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, userID string) {
	var req roleRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	m, err := h.teams.ChangeRole(r.Context(), sess, teamID, userID, req.Role)
	if err != nil {
		writeError(w, h.logger, "change role", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request, sess *domain.Session, teamID, userID string) {
	if err := h.teams.RemoveMember(r.Context(), sess, teamID, userID); err != nil {
		writeError(w, h.logger, "remove member", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
