// Package remote talks to the external analysis service that parses
// uploads, fits the regression and renders reports.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// Client calls the analysis service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service rooted at baseURL
// (for example http://localhost:8000/api).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upload sends a CSV or Excel file and returns the session the service
// created for it.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader) (*models.Session, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-csv", &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp models.UploadResponse
	if err := c.do(req, models.OpUpload, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, models.NewRemoteError(models.OpUpload, http.StatusOK, resp.Message, nil)
	}
	if resp.SessionID == "" {
		return nil, models.NewRemoteError(models.OpUpload, http.StatusOK, "", fmt.Errorf("response has no session id"))
	}

	return &models.Session{
		ID:       resp.SessionID,
		FileName: filepath.Base(fileName),
		RowCount: resp.Rows,
		Columns:  resp.Columns,
	}, nil
}

// Analyze asks the service to fit the model described by req. The result is
// rejected unless its coefficient and p-value keys match req.Independents.
func (c *Client) Analyze(ctx context.Context, areq models.AnalyzeRequest) (*models.AnalysisResult, error) {
	req, err := c.newJSONRequest(ctx, "/analyze", areq)
	if err != nil {
		return nil, err
	}

	var wire analysisResponse
	if err := c.do(req, models.OpAnalyze, &wire); err != nil {
		return nil, err
	}

	result, err := wire.toResult(areq)
	if err != nil {
		return nil, models.NewRemoteError(models.OpAnalyze, http.StatusOK, "", err)
	}
	result.ID = uuid.New().String()
	return result, nil
}

// GenerateReport requests a report file. The caller must close the returned
// stream.
func (c *Client) GenerateReport(ctx context.Context, rreq models.ReportRequest) (io.ReadCloser, error) {
	req, err := c.newJSONRequest(ctx, "/generate-report", rreq)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewRemoteError(models.OpReport, 0, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(models.OpReport, resp)
	}
	return resp.Body, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analysis service health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("analysis service health check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) newJSONRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, op models.RemoteOp, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewRemoteError(op, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewRemoteError(op, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// errorFromResponse extracts the service's "detail" message when it is a
// plain string.
func errorFromResponse(op models.RemoteOp, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	var eb errorBody
	var detail string
	if json.Unmarshal(body, &eb) == nil && len(eb.Detail) > 0 {
		_ = json.Unmarshal(eb.Detail, &detail)
	}
	return models.NewRemoteError(op, resp.StatusCode, detail, cause)
}
