package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/events"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/service"
	"beneficiary-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type apiClient struct {
	t     *testing.T
	srv   *httptest.Server
	token string
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st := repository.NewMemoryStore()
	checker := authz.NewChecker(st.Members, logger)
	bulk := service.BulkOptions{ChunkSize: 10, Concurrency: 4}
	api := NewAPI(Services{
		Auth:          service.NewAuthService(st.Users, store.NewSessionStore(store.NewMemoryKV(), time.Hour), logger),
		Teams:         service.NewTeamService(st, checker, logger),
		Beneficiaries: service.NewBeneficiaryService(st.Beneficiaries, checker, events.NopPublisher{}, bulk, 1<<20, logger),
		FormLinks:     service.NewFormLinkService(st.FormLinks, checker, "http://localhost:8080", logger),
		Submissions:   service.NewSubmissionService(st, checker, events.NopPublisher{}, bulk, logger),
	}, 1<<20, logger)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv}
}

func (c *apiClient) send(req *http.Request) (int, envelope) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	var env envelope
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(body) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(body, &env))
	}
	return resp.StatusCode, env
}

func (c *apiClient) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, r)
	require.NoError(c.t, err)
	return c.send(req)
}

func (c *apiClient) upload(path string, file []byte, fields map[string]string) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "list.xlsx")
	require.NoError(c.t, err)
	_, err = fw.Write(file)
	require.NoError(c.t, err)
	for k, v := range fields {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	require.NoError(c.t, mw.Close())
	req, err := http.NewRequest(http.MethodPost, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

// signIn registers and logs in, keeping the token for later calls.
func (c *apiClient) signIn(email string) string {
	c.t.Helper()
	c.token = ""
	status, env := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": email, "password": "correct horse"})
	require.Equal(c.t, http.StatusOK, status)
	require.Equal(c.t, ResultSuccess, env.Code, env.Message)
	status, env = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": "correct horse"})
	require.Equal(c.t, http.StatusOK, status)
	var sess domain.Session
	require.NoError(c.t, json.Unmarshal(env.Result, &sess))
	c.token = sess.Token
	return sess.Token
}

func (c *apiClient) createTeam(name string) string {
	c.t.Helper()
	_, env := c.do(http.MethodPost, "/api/v1/teams", map[string]string{"name": name})
	require.Equal(c.t, ResultSuccess, env.Code, env.Message)
	var m domain.TeamMembership
	require.NoError(c.t, json.Unmarshal(env.Result, &m))
	return m.Team.TeamID
}

func TestAPI_Sessions(t *testing.T) {
	c := newTestAPI(t)

	status, env := c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ResultTokenExpired, env.Code)

	c.token = "forged"
	status, _ = c.do(http.MethodGet, "/api/v1/teams", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	c.signIn("ana@example.org")
	status, env = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Result), "ana@example.org")

	c.token = ""
	_, env = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ana@example.org", "password": "nope"})
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), env.Message)

	token := c.signIn("bob@example.org")
	status, _ = c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	c.token = token
	status, _ = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/api/v1/auth/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestAPI_BeneficiaryErrorsAndDenials(t *testing.T) {
	c := newTestAPI(t)
	c.signIn("admin@example.org")
	teamID := c.createTeam("Barangay Uno")
	base := "/api/v1/teams/" + teamID + "/beneficiaries"

	status, env := c.do(http.MethodPost, base, map[string]string{"last_name": "Santos"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ResultError, env.Code)
	var fe map[string]string
	require.NoError(t, json.Unmarshal(env.Result, &fe))
	assert.Equal(t, "this field is required", fe["first_name"])

	status, env = c.do(http.MethodPost, base, map[string]string{
		"last_name": "Santos", "first_name": "Maria", "birth_month": "3", "birth_day": "14", "birth_year": "1980", "sex": "F",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var b domain.Beneficiary
	require.NoError(t, json.Unmarshal(env.Result, &b))

	status, env = c.do(http.MethodGet, base+"?search=san&sort_by=last_name&desc=true", nil)
	require.Equal(t, http.StatusOK, status)
	var page service.ListBeneficiariesResponse
	require.NoError(t, json.Unmarshal(env.Result, &page))
	assert.Equal(t, 1, page.Total)

	status, env = c.do(http.MethodGet, base+"?sort_by=secret", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `cannot sort by "secret"`, env.Message)

	status, _ = c.do(http.MethodGet, base+"/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = c.do(http.MethodPost, base+"/clear", map[string]bool{"confirm": false})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.ErrConfirmationRequired.Error(), env.Message)

	c.signIn("outsider@example.org")
	status, env = c.do(http.MethodGet, base+"/"+b.BeneficiaryID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "not a member of this team", env.Message)

	status, _ = c.do(http.MethodPatch, base, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	status, _ = c.do(http.MethodGet, "/api/v1/teams/"+teamID+"/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func sheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Last Name", "First Name", "Type of Assistance"},
		{"Santos", "Maria", "Medical"},
		{"Santos", "Maria", "Burial"},
		{"Cruz", "Juan", "Medical"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestAPI_ImportExportDuplicates(t *testing.T) {
	c := newTestAPI(t)
	c.signIn("admin@example.org")
	teamID := c.createTeam("Barangay Uno")
	base := "/api/v1/teams/" + teamID + "/beneficiaries"

	status, env := c.upload(base+"/import/preview", sheet(t), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var preview service.ImportPreview
	require.NoError(t, json.Unmarshal(env.Result, &preview))
	assert.Equal(t, 3, preview.RowCount)
	assert.Len(t, preview.Suggestions, 3)

	_, env = c.upload(base+"/import", sheet(t), map[string]string{"mapping": `{"Last Name":"no_such_field"}`})
	assert.Equal(t, ResultError, env.Code)

	status, env = c.upload(base+"/import", sheet(t), map[string]string{
		"mapping": `{"Last Name":"last_name","First Name":"first_name","Type of Assistance":"type_of_assistance"}`,
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var res service.ImportResult
	require.NoError(t, json.Unmarshal(env.Result, &res))
	assert.Equal(t, 3, res.Imported)

	req, err := http.NewRequest(http.MethodGet, c.srv.URL+base+"/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.srv.Client().Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	_, env = c.do(http.MethodGet, base+"/duplicates", nil)
	assert.Contains(t, string(env.Result), `"candidate_count":1`)

	_, env = c.do(http.MethodPost, base+"/duplicates/remove", map[string]bool{"confirm": false})
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, service.ErrConfirmationRequired.Error(), env.Message)
	var pending service.DuplicateRemoval
	require.NoError(t, json.Unmarshal(env.Result, &pending))
	require.NotNil(t, pending.Report)
	assert.Equal(t, 1, pending.Report.CandidateCount)
	assert.Nil(t, pending.Outcome)

	_, env = c.do(http.MethodPost, base+"/duplicates/remove", map[string]bool{"confirm": true})
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var out service.DuplicateRemoval
	require.NoError(t, json.Unmarshal(env.Result, &out))
	require.NotNil(t, out.Outcome)
	assert.Equal(t, service.BulkOutcome{Requested: 1, Succeeded: 1}, *out.Outcome)
}

func TestAPI_PublicFormFlow(t *testing.T) {
	c := newTestAPI(t)
	c.signIn("admin@example.org")
	teamID := c.createTeam("Barangay Uno")

	_, env := c.do(http.MethodPost, "/api/v1/teams/"+teamID+"/form-links", map[string]string{"name": "Walk-in"})
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var link domain.FormLink
	require.NoError(t, json.Unmarshal(env.Result, &link))
	assert.Equal(t, "http://localhost:8080/apply?link="+link.LinkID+"&team="+teamID, link.URL)

	admin := c.token
	c.token = ""
	status, env := c.do(http.MethodGet, "/public/v1/form?team="+teamID+"&link="+link.LinkID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Result), `"team_name":"Barangay Uno"`)

	_, env = c.do(http.MethodPost, "/public/v1/apply", map[string]any{
		"team": teamID, "link": link.LinkID,
		"fields": map[string]string{"last_name": "Cruz", "first_name": "Juan", "birth_month": "May", "birth_day": "2", "birth_year": "1970", "sex": "male"},
	})
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var applied map[string]string
	require.NoError(t, json.Unmarshal(env.Result, &applied))

	_, env = c.do(http.MethodPost, "/public/v1/apply", map[string]any{"team": "nope", "fields": map[string]string{}})
	assert.Equal(t, service.ErrFormUnavailable.Error(), env.Message)

	c.token = admin
	_, env = c.do(http.MethodPost, "/api/v1/teams/"+teamID+"/submissions/promote", map[string][]string{"ids": {applied["submission_id"]}})
	require.Equal(t, ResultSuccess, env.Code, env.Message)

	_, env = c.do(http.MethodGet, "/api/v1/teams/"+teamID+"/beneficiaries", nil)
	var page service.ListBeneficiariesResponse
	require.NoError(t, json.Unmarshal(env.Result, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Male", page.Items[0].Sex)

	_, env = c.do(http.MethodPut, "/api/v1/teams/"+teamID+"/form-links/"+link.LinkID, map[string]bool{"active": false})
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	c.token = ""
	_, env = c.do(http.MethodGet, "/public/v1/form?team="+teamID+"&link="+link.LinkID, nil)
	assert.Equal(t, service.ErrFormUnavailable.Error(), env.Message)
}
