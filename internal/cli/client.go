package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// FlowSummary — flow из списка API.
type FlowSummary struct {
	Name      string `json:"name"`
	Published bool   `json:"published"`
	Approved  bool   `json:"approved"`
}

// RunResponse — запись запуска из API.
type RunResponse struct {
	RunID      string `json:"run_id"`
	Flow       string `json:"flow"`
	Trigger    string `json:"trigger"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Status     string `json:"status"`
	FailedStep string `json:"failed_step,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// RunRow — запуск из выборки последних запусков.
type RunRow struct {
	RunID      string `json:"run_id"`
	Flow       string `json:"flow"`
	Trigger    string `json:"trigger"`
	StartedAt  int64  `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
	FailedStep string `json:"failed_step,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// JobResponse — job планировщика из API.
type JobResponse struct {
	Name    string `json:"name"`
	Cron    string `json:"cron"`
	NextRun string `json:"next_run"`
	Running bool   `json:"running"`
}

// StatsResponse — агрегат статистики из API.
type StatsResponse struct {
	GeneratedAt       string         `json:"generated_at"`
	SuccessRate       float64        `json:"success_rate"`
	AverageDurationMS float64        `json:"average_duration_ms"`
	FailureCounts     map[string]int `json:"failure_counts"`
	ByFlow            []struct {
		Flow    string `json:"flow"`
		Total   int    `json:"total"`
		Success int    `json:"success"`
		Failed  int    `json:"failed"`
		Skipped int    `json:"skipped"`
	} `json:"by_flow"`
	Selectors []struct {
		Flow     string  `json:"flow"`
		Selector string  `json:"selector"`
		Success  int     `json:"success"`
		Failure  int     `json:"failure"`
		Rate     float64 `json:"rate"`
	} `json:"selectors"`
}

// CreateRunRequest — запуск flow.
type CreateRunRequest struct {
	Inputs map[string]any `json:"inputs,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Robota API.
type Client struct {
	baseURL    string
	role       string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. Роль role передаётся в каждом
// запросе заголовком X-Actor-Role.
func NewClient(baseURL, role string) *Client {
	return &Client{
		baseURL: baseURL,
		role:    role,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // синхронные запуски могут быть долгими
		},
	}
}

// --- Flows ---

// ListFlows возвращает все flows.
func (c *Client) ListFlows() ([]FlowSummary, error) {
	var flows []FlowSummary
	err := c.list("/api/v1/flows", nil, &flows)
	return flows, err
}

// GetFlow возвращает документ flow по имени.
func (c *Client) GetFlow(name string) (map[string]any, error) {
	var flow map[string]any
	err := c.get("/api/v1/flows/"+url.PathEscape(name), &flow)
	return flow, err
}

// UpdateFlow заменяет документ flow.
func (c *Client) UpdateFlow(name string, doc json.RawMessage) (map[string]any, error) {
	var flow map[string]any
	err := c.put("/api/v1/flows/"+url.PathEscape(name), doc, &flow)
	return flow, err
}

// PublishFlow отмечает flow как опубликованный.
func (c *Client) PublishFlow(name string) error {
	return c.post("/api/v1/flows/"+url.PathEscape(name)+"/publish", nil, nil)
}

// ApproveFlow отмечает flow как утверждённый.
func (c *Client) ApproveFlow(name string) error {
	return c.post("/api/v1/flows/"+url.PathEscape(name)+"/approve", nil, nil)
}

// --- Runs ---

// StartRun запускает flow синхронно и возвращает запись запуска.
func (c *Client) StartRun(name string, inputs map[string]any) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/flows/"+url.PathEscape(name)+"/runs", CreateRunRequest{Inputs: inputs}, &run)
	return &run, err
}

// ListRuns возвращает последние запуски.
func (c *Client) ListRuns(limit int) ([]RunRow, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var runs []RunRow
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// StopRuns выставляет флаг остановки текущего запуска.
func (c *Client) StopRuns() error {
	return c.post("/api/v1/runs/stop", nil, nil)
}

// --- Jobs ---

// ListJobs возвращает jobs планировщика.
func (c *Client) ListJobs() ([]JobResponse, error) {
	var jobs []JobResponse
	err := c.list("/api/v1/jobs", nil, &jobs)
	return jobs, err
}

// --- Actions ---

// ListActions возвращает имена зарегистрированных действий.
func (c *Client) ListActions() ([]string, error) {
	var names []string
	err := c.list("/api/v1/actions", nil, &names)
	return names, err
}

// --- Stats ---

// GetStats возвращает агрегат статистики.
func (c *Client) GetStats() (*StatsResponse, error) {
	var stats StatsResponse
	err := c.get("/api/v1/stats", &stats)
	return &stats, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.role != "" {
		req.Header.Set("X-Actor-Role", c.role)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
