package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"school-timetable/internal/dto"
)

const (
	clientTimeout    = 30 * time.Second
	maxResponseBytes = 5 * 1024 * 1024 // 5MB
)

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string // 响应体中的 error 字段，可能为空
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("timetable api: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("timetable api: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client 时间表服务的 HTTP 客户端
// 同时实现 Roster、Directory 与 Submitter，并提供只读查看接口
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建客户端；httpClient 为 nil 时使用带 30s 超时的默认客户端
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: clientTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ListClasses GET /classes
func (c *Client) ListClasses(ctx context.Context) ([]dto.ClassResponse, error) {
	var classes []dto.ClassResponse
	if err := c.do(ctx, http.MethodGet, "/classes", nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// ListTeachers GET /teachers?department=
func (c *Client) ListTeachers(ctx context.Context, department string) ([]dto.TeacherResponse, error) {
	var teachers []dto.TeacherResponse
	path := "/teachers?department=" + url.QueryEscape(department)
	if err := c.do(ctx, http.MethodGet, path, nil, &teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

// CreateTimetable POST /timetable
func (c *Client) CreateTimetable(ctx context.Context, req *dto.CreateTimetableRequest) error {
	var resp dto.CreateTimetableResponse
	if err := c.do(ctx, http.MethodPost, "/timetable", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{StatusCode: http.StatusOK, Message: resp.Message}
	}
	return nil
}

// GetTimetable GET /timetable?className=
func (c *Client) GetTimetable(ctx context.Context, className string) (*dto.TimetableDocument, error) {
	var doc dto.TimetableDocument
	path := "/timetable?className=" + url.QueryEscape(className)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListClassNames GET /timetable
func (c *Client) ListClassNames(ctx context.Context) ([]string, error) {
	var resp dto.ClassNamesResponse
	if err := c.do(ctx, http.MethodGet, "/timetable", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ClassNames, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求失败: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
