// Package fitbit 读取 Fitbit Web API 的单日饮食、活动与饮水数据，
// 并将其组装为导入管线可识别的营养日志结构。
package fitbit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultBaseURL 是 Fitbit Web API 地址
const DefaultBaseURL = "https://api.fitbit.com"

const (
	endpointFoods      = "foods"
	endpointActivities = "activities"
	endpointWater      = "water"
)

var (
	// ErrRateLimited 在接口返回 429 时出现，不会重试
	ErrRateLimited = errors.New("fitbit rate limit exceeded")
	// ErrUnauthorized 在令牌无效或过期时出现
	ErrUnauthorized = errors.New("fitbit access token rejected")
	// ErrUpstreamUnavailable 在熔断器打开时出现
	ErrUpstreamUnavailable = errors.New("fitbit api temporarily unavailable")
	// ErrTokenMissing 表示未提供访问令牌
	ErrTokenMissing = errors.New("fitbit access token is required")
)

// APIError 描述非 2xx 响应
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("fitbit %s returned %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("fitbit %s returned %d", e.Endpoint, e.Status)
}

func (e *APIError) retryable() bool {
	return e.Status >= 500
}

// RequestRecorder 记录每次请求的结果
type RequestRecorder interface {
	ObserveFitbitRequest(endpoint, outcome string)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client 访问 Fitbit Web API。所有请求经过同一个熔断器。
type Client struct {
	baseURL        string
	http           httpDoer
	maxRetries     uint
	initialBackoff time.Duration
	breaker        *gobreaker.CircuitBreaker
	logger         *zap.Logger
	recorder       RequestRecorder
}

// Option 配置 Client
type Option func(*Client)

// WithBaseURL 覆盖 API 地址，便于测试或代理
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(client httpDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetries 设置失败后的最大重试次数与首次退避间隔
func WithRetries(maxRetries int, initial time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = uint(maxRetries)
		}
		if initial > 0 {
			c.initialBackoff = initial
		}
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder 设置请求指标记录器
func WithRecorder(recorder RequestRecorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// NewClient 构造 Client，默认重试 3 次，首次退避 1 秒
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		http:           &http.Client{Timeout: 15 * time.Second},
		maxRetries:     3,
		initialBackoff: time.Second,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fitbit",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// 只有服务端错误与网络错误计入熔断
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.retryable()
			}
			return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnauthorized)
		},
	})

	return c
}

// Day 是单日的原始接口响应
type Day struct {
	Date     string
	FoodLog  []byte
	Activity []byte
	Water    []byte
}

// FetchDay 依次读取指定日期的饮食、活动与饮水数据
func (c *Client) FetchDay(ctx context.Context, token, date string) (Day, error) {
	day := Day{Date: date}
	if strings.TrimSpace(token) == "" {
		return day, ErrTokenMissing
	}

	var err error
	if day.FoodLog, err = c.get(ctx, token, endpointFoods, fmt.Sprintf("/1/user/-/foods/log/date/%s.json", date)); err != nil {
		return day, err
	}
	if day.Activity, err = c.get(ctx, token, endpointActivities, fmt.Sprintf("/1/user/-/activities/date/%s.json", date)); err != nil {
		return day, err
	}
	if day.Water, err = c.get(ctx, token, endpointWater, fmt.Sprintf("/1/user/-/foods/log/water/date/%s.json", date)); err != nil {
		return day, err
	}
	return day, nil
}

// FetchRange 顺序读取 [start, end] 内的每一天。遇到错误时停止，
// 并返回此前已成功读取的天数与该错误。
func (c *Client) FetchRange(ctx context.Context, token string, start, end time.Time) ([]Day, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var days []Day
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		day, err := c.FetchDay(ctx, token, current.Format("2006-01-02"))
		if err != nil {
			return days, err
		}
		days = append(days, day)
	}
	return days, nil
}

func (c *Client) get(ctx context.Context, token, endpoint, path string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff

	operation := func() ([]byte, error) {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, token, endpoint, path)
		})
		if err != nil {
			return nil, classify(err)
		}
		return result.([]byte), nil
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Info("retrying fitbit request",
				zap.String("endpoint", endpoint),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		c.record(endpoint, outcomeOf(err))
		return nil, err
	}
	c.record(endpoint, "ok")
	return body, nil
}

func (c *Client) do(ctx context.Context, token, endpoint, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build fitbit %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fitdash/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request fitbit %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read fitbit %s response: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// classify 决定错误是否值得重试
func classify(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnauthorized) {
		return backoff.Permanent(err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.retryable() {
		return backoff.Permanent(err)
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "circuit_open"
	default:
		return "error"
	}
}

func (c *Client) record(endpoint, outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveFitbitRequest(endpoint, outcome)
	}
}
