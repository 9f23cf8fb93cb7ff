package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 12 * time.Second

// TokenSource 提供请求 Token 并处理 401
type TokenSource interface {
	TokenFor(path string) (string, error)
	// HandleUnauthorized 返回 true 表示凭证已更新，可重试一次
	HandleUnauthorized(ctx context.Context, usedToken string) (bool, error)
}

// Options 客户端参数
type Options struct {
	HTTPClient *http.Client
	Retry      *RetryPolicy
	Logger     *zap.SugaredLogger
	Timeout    time.Duration
	Language   string
	Sleep      func(ctx context.Context, d time.Duration) error
}

// Client 控制台 API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	retry      RetryPolicy
	log        *zap.SugaredLogger
	timeout    time.Duration
	language   string
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// NewClient 创建客户端，tokens 为 nil 时不附带凭证
func NewClient(baseURL string, tokens TokenSource, opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: opts.HTTPClient,
		tokens:     tokens,
		retry:      DefaultRetryPolicy(),
		log:        opts.Logger,
		timeout:    opts.Timeout,
		language:   strings.TrimSpace(opts.Language),
		sleep:      opts.Sleep,
		now:        time.Now,
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

// Do 发送请求并把 data 解码到 out
// 401 最多续期重试一次；429 按重试策略退避后重试
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	renewed := false
	attempts := 0
	for {
		token := ""
		if c.tokens != nil {
			token, err = c.tokens.TokenFor(path)
			if err != nil {
				return err
			}
		}
		attempts++
		err = c.send(ctx, method, path, token, payload, out)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrUnauthorized) && c.tokens != nil && !renewed {
			renewed = true
			retry, handleErr := c.tokens.HandleUnauthorized(ctx, token)
			if handleErr != nil {
				c.log.Infow("api_unauthorized_unrecovered", "path", path, "error", handleErr)
				return errors.Join(err, handleErr)
			}
			if !retry {
				return err
			}
			// 续期后的重放不占用限流重试次数
			attempts--
			continue
		}

		if c.retry.ShouldRetry(attempts, err) {
			wait := c.retry.Backoff(err)
			c.log.Infow("api_retry_scheduled", "path", path, "attempt", attempts, "wait", wait.String())
			if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		return err
	}
}

// send 单次请求，token 由调用方指定
func (c *Client) send(ctx context.Context, method, path, token string, payload []byte, out interface{}) error {
	raw, header, status, err := c.doRequest(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return c.decodeError(status, header, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode envelope failed", ErrResponseInvalid)
	}
	if env.StatusCode != 0 {
		return &APIError{Status: status, Code: "business_error", Message: env.Msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data failed: %v", ErrResponseInvalid, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, payload []byte) ([]byte, http.Header, int, error) {
	ctx, cancel := c.withDefaultTimeout(ctx)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return raw, resp.Header, resp.StatusCode, nil
}

func (c *Client) decodeError(status int, header http.Header, raw []byte) error {
	apiErr := &APIError{Status: status}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		apiErr.RequestID = body.RequestID
	}
	if apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
	if status == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(header.Get("Retry-After"), c.now())
	}
	return apiErr
}

func (c *Client) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body failed", ErrRequestFailed)
	}
	return payload, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
