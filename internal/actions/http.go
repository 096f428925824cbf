package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// RegisterHTTP регистрирует действие http — исходящий HTTP-запрос
// из шага flow.
//
// Params:
//   - method (string): HTTP-метод (GET, POST, PUT, DELETE). Default: GET
//   - url (string): URL для запроса (обязательно)
//   - headers (map[string]any): HTTP-заголовки
//   - body (any): тело запроса (сериализуется в JSON)
//   - timeout_sec (number): таймаут запроса в секундах. Default: 30
//
// Результат:
//   - status_code (int): HTTP-код ответа
//   - headers (map[string]string): заголовки ответа
//   - body (any): тело ответа (JSON или строка)
//
// HTTP >= 400 — отказ шага.
func RegisterHTTP(r *Registry, client *http.Client) {
	if client == nil {
		client = &http.Client{}
	}

	r.Register(New("http", func(ctx context.Context, req *Request) (any, error) {
		method := String(req.Params, "method")
		if method == "" {
			method = http.MethodGet
		}
		url := String(req.Params, "url")
		if url == "" {
			return nil, fmt.Errorf("%w: http: url is required", ErrInvalidParams)
		}

		ctx, cancel := context.WithTimeout(ctx, httpTimeout(req.Params))
		defer cancel()

		// Подготавливаем body
		var bodyReader io.Reader
		if body, ok := req.Params["body"]; ok && body != nil {
			bodyBytes, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("%w: http: marshal body: %v", ErrInvalidParams, err)
			}
			bodyReader = bytes.NewReader(bodyBytes)
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("%w: http: %v", ErrInvalidParams, err)
		}

		setHeaders(httpReq, req.Params)

		// Content-Type по умолчанию для запросов с body
		if bodyReader != nil && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: http %s %s", ErrTimeout, method, url)
			}
			return nil, fmt.Errorf("http %s %s: %w", method, url, err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("http read response: %w", err)
		}

		result := buildHTTPResult(resp, respBody)

		if resp.StatusCode >= 400 {
			return result, fmt.Errorf("http %s %s: HTTP %d: %s",
				method, url, resp.StatusCode, truncate(string(respBody), 200))
		}
		return result, nil
	}))
}

// buildHTTPResult формирует результат действия из HTTP-ответа.
func buildHTTPResult(resp *http.Response, body []byte) map[string]any {
	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	// Парсим body: пробуем JSON, иначе строка
	var parsedBody any
	if err := json.Unmarshal(body, &parsedBody); err != nil {
		parsedBody = string(body)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parsedBody,
	}
}

// httpTimeout извлекает таймаут из параметров.
func httpTimeout(params map[string]any) time.Duration {
	if val, ok := params["timeout_sec"]; ok {
		switch v := val.(type) {
		case float64:
			if v > 0 {
				return time.Duration(v * float64(time.Second))
			}
		case int:
			if v > 0 {
				return time.Duration(v) * time.Second
			}
		}
	}
	return defaultHTTPTimeout
}

// setHeaders устанавливает заголовки из параметров.
func setHeaders(req *http.Request, params map[string]any) {
	headers, ok := params["headers"]
	if !ok || headers == nil {
		return
	}

	switch h := headers.(type) {
	case map[string]any:
		for key, val := range h {
			if s, ok := val.(string); ok {
				req.Header.Set(key, s)
			}
		}
	case map[string]string:
		for key, val := range h {
			req.Header.Set(key, val)
		}
	}
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
