package httpapi

import (
	"beneficiary-data/internal/service"

	"go.uber.org/zap"
)

// Services is everything the API serves.
type Services struct {
	Auth          *service.AuthService
	Teams         *service.TeamService
	Beneficiaries *service.BeneficiaryService
	FormLinks     *service.FormLinkService
	Submissions   *service.SubmissionService
}

// NewAPI builds a router with every route registered.
func NewAPI(s Services, maxUpload int64, logger *zap.Logger) *Router {
	r := NewRouter(s.Auth, logger)
	r.RegisterHealthRoutes()
	r.RegisterAuthRoutes(NewAuthHandler(s.Auth, logger))
	r.RegisterTeamRoutes(NewTeamHandler(
		s.Teams,
		NewBeneficiaryHandler(s.Beneficiaries, maxUpload, logger),
		NewFormLinkHandler(s.FormLinks, logger),
		NewSubmissionHandler(s.Submissions, logger),
		logger,
	))
	r.RegisterPublicRoutes(NewPublicHandler(s.Submissions, logger))
	return r
}
