package client

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/events"
	httpapi "beneficiary-data/internal/http"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/service"
	"beneficiary-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func setupServer(t *testing.T) (*httptest.Server, *service.AuthService) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st := repository.NewMemoryStore()
	checker := authz.NewChecker(st.Members, logger)
	auth := service.NewAuthService(st.Users, store.NewSessionStore(store.NewMemoryKV(), time.Hour), logger)
	api := httpapi.NewAPI(httpapi.Services{
		Auth:          auth,
		Teams:         service.NewTeamService(st, checker, logger),
		Beneficiaries: service.NewBeneficiaryService(st.Beneficiaries, checker, events.NopPublisher{}, service.BulkOptions{}, 0, logger),
		FormLinks:     service.NewFormLinkService(st.FormLinks, checker, "http://localhost", logger),
		Submissions:   service.NewSubmissionService(st, checker, events.NopPublisher{}, service.BulkOptions{}, logger),
	}, 0, logger)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return srv, auth
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Surname", "First Name", "Barangay"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Santos", "Maria", "Poblacion"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"santos", "maria", "San Roque"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestClient_ImportExportDuplicates(t *testing.T) {
	srv, auth := setupServer(t)
	ctx := context.Background()
	_, err := auth.Register(ctx, "admin@example.org", "correct horse", "Admin")
	require.NoError(t, err)

	c := New(srv.URL, zaptest.NewLogger(t))
	_, err = c.Login(ctx, "admin@example.org", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), apiErr.Message)

	sess, err := c.Login(ctx, "admin@example.org", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	// create a team through the raw resty client; the CLI never does this
	resp, err := c.http.R().SetBody(map[string]string{"name": "Barangay Uno"}).Post("/api/v1/teams")
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode())
	teams, err := c.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	teamID := teams[0].Team.TeamID

	preview, err := c.PreviewImport(ctx, teamID, "list.xlsx", bytes.NewReader(workbook(t)), "")
	require.NoError(t, err)
	assert.Equal(t, 2, preview.RowCount)
	assert.Equal(t, []string{"Surname", "First Name", "Barangay"}, preview.Headers)

	_, err = c.Import(ctx, teamID, "list.xlsx", bytes.NewReader(workbook(t)), "Nope", map[string]string{"Surname": "last_name"})
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "sheet not found")

	res, err := c.Import(ctx, teamID, "list.xlsx", bytes.NewReader(workbook(t)), "", map[string]string{
		"Surname":    "last_name",
		"First Name": "first_name",
		"Barangay":   "barangay",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	var out bytes.Buffer
	name, err := c.Export(ctx, teamID, &out)
	require.NoError(t, err)
	assert.Regexp(t, `^beneficiaries-\d{4}-\d{2}-\d{2}\.xlsx$`, name)
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("PK")))

	report, err := c.Duplicates(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CandidateCount)

	removed, err := c.RemoveDuplicates(ctx, teamID)
	require.NoError(t, err)
	require.NotNil(t, removed.Outcome)
	assert.Equal(t, 1, removed.Outcome.Succeeded)

	c.SetToken("expired")
	_, err = c.Duplicates(ctx, teamID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, 60401, apiErr.Code)
}
