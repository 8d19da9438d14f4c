// Package client talks to the beneficiary-data HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"beneficiary-data/internal/dedupe"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/service"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const resultSuccess = 2000

// APIError is a failed call. Fields holds per-field validation messages
// when the server sent them.
type APIError struct {
	Status  int
	Code    int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with HTTP %d", e.Status)
	}
	return e.Message
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client API 客户端
// Requests are never retried: imports and bulk deletes are not idempotent.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Minute). // 大文件导入/导出
		SetHeader("Accept", "application/json")
	return &Client{http: c, logger: logger}
}

// SetToken authenticates later calls with a session token.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// decode unwraps the result envelope into out.
func decode(resp *resty.Response, out any) error {
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &APIError{Status: resp.StatusCode(), Message: fmt.Sprintf("unexpected response (HTTP %d)", resp.StatusCode())}
	}
	if env.Code != resultSuccess {
		apiErr := &APIError{Status: resp.StatusCode(), Code: env.Code, Message: env.Message}
		var fields map[string]string
		if len(env.Result) > 0 && json.Unmarshal(env.Result, &fields) == nil {
			apiErr.Fields = fields
		}
		return apiErr
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

func (c *Client) call(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	return decode(resp, out)
}

func teamPath(teamID, rest string) string {
	return "/api/v1/teams/" + teamID + "/beneficiaries" + rest
}

// Login opens a session and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var sess domain.Session
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{"email": email, "password": password})
	if err := c.call(req, http.MethodPost, "/api/v1/auth/login", &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

// Teams lists the caller's teams.
func (c *Client) Teams(ctx context.Context) ([]domain.TeamMembership, error) {
	var out []domain.TeamMembership
	if err := c.call(c.http.R().SetContext(ctx), http.MethodGet, "/api/v1/teams", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PreviewImport(ctx context.Context, teamID, filename string, file io.Reader, sheet string) (*service.ImportPreview, error) {
	var out service.ImportPreview
	req := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, file).
		SetFormData(map[string]string{"sheet": sheet})
	if err := c.call(req, http.MethodPost, teamPath(teamID, "/import/preview"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import uploads a sheet with a header -> field key mapping.
func (c *Client) Import(ctx context.Context, teamID, filename string, file io.Reader, sheet string, pairs map[string]string) (*service.ImportResult, error) {
	raw, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping: %w", err)
	}
	var out service.ImportResult
	req := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, file).
		SetFormData(map[string]string{"sheet": sheet, "mapping": string(raw)})
	if err := c.call(req, http.MethodPost, teamPath(teamID, "/import"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads the team's workbook into w and returns the file name the
// server suggested.
func (c *Client) Export(ctx context.Context, teamID string, w io.Writer) (string, error) {
	path := teamPath(teamID, "/export")
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return "", fmt.Errorf("failed to call GET %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK || resp.Header().Get("Content-Type") == "application/json" {
		if err := decode(resp, nil); err != nil {
			return "", err
		}
		return "", &APIError{Status: resp.StatusCode(), Message: "export returned no workbook"}
	}
	if _, err := w.Write(resp.Body()); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	name := "beneficiaries.xlsx"
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, nil
}

func (c *Client) Duplicates(ctx context.Context, teamID string) (*dedupe.Report, error) {
	var out dedupe.Report
	if err := c.call(c.http.R().SetContext(ctx), http.MethodGet, teamPath(teamID, "/duplicates"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveDuplicates confirms and runs duplicate removal.
func (c *Client) RemoveDuplicates(ctx context.Context, teamID string) (*service.DuplicateRemoval, error) {
	var out service.DuplicateRemoval
	req := c.http.R().SetContext(ctx).SetBody(map[string]bool{"confirm": true})
	if err := c.call(req, http.MethodPost, teamPath(teamID, "/duplicates/remove"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
