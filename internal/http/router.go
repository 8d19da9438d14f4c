package httpapi

import (
	"errors"
	"net/http"
	"time"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	auth   *service.AuthService
	logger *zap.Logger
}

func NewRouter(auth *service.AuthService, logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		auth:   auth,
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// sessionHandlerFunc receives the resolved caller.
type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, sess *domain.Session)

// HandleSession registers a handler that requires a bearer session.
func (r *Router) HandleSession(pattern string, h sessionHandlerFunc) {
	r.mux.HandleFunc(pattern, r.requireSession(h))
}

func (r *Router) requireSession(h sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := bearerToken(req)
		if token == "" {
			writeUnauthenticated(w)
			return
		}
		sess, err := r.auth.Resolve(req.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				writeUnauthenticated(w)
				return
			}
			writeError(w, r.logger, "resolve session", err, nil)
			return
		}
		h(w, req, sess)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic in handler", zap.Any("panic", p), zap.String("path", req.URL.Path))
			writeJSON(rec, http.StatusInternalServerError, Fail(service.ErrOperationFailed.Error()))
		}
		r.logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	}()
	r.mux.ServeHTTP(rec, req)
}

// RegisterAuthRoutes 账户与会话
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/api/v1/auth/register", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Register(w, req)
	})
	r.Handle("/api/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Login(w, req)
	})
	r.HandleSession("/api/v1/auth/logout", func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Logout(w, req, sess)
	})
	r.HandleSession("/api/v1/auth/me", func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Me(w, req, sess)
	})
}

// RegisterTeamRoutes 团队及其下属资源（成员、记录、表单链接、提交）
func (r *Router) RegisterTeamRoutes(h *TeamHandler) {
	r.HandleSession("/api/v1/teams", h.Serve)
	r.HandleSession("/api/v1/teams/", h.Serve)
}

// RegisterPublicRoutes 公开申请表单，无需登录
func (r *Router) RegisterPublicRoutes(h *PublicHandler) {
	r.Handle("/public/v1/form", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Form(w, req)
	})
	r.Handle("/public/v1/apply", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Apply(w, req)
	})
}

// RegisterHealthRoutes liveness probe.
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}
