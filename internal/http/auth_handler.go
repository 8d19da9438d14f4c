package httpapi

import (
	"net/http"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// AuthHandler 注册、登录、登出
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	u, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, h.logger, "register", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}

// Login returns the session, token included.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, "login", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sess))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if err := h.auth.Logout(r.Context(), sess.Token); err != nil {
		writeError(w, h.logger, "logout", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) Me(w http.ResponseWriter, _ *http.Request, sess *domain.Session) {
	writeJSON(w, http.StatusOK, Ok(sess))
}
