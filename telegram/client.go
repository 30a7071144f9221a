package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/resilience"
	"github.com/kbukum/transcribot/version"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Config configures the Bot API client.
type Config struct {
	Token          string        `mapstructure:"token" validate:"required"`
	APIURL         string        `mapstructure:"api_url" validate:"required,url"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RateLimit caps outgoing calls per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxAttempts bounds retries of retryable failures.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 25
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 4
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("telegram: token is required")
	}
	if c.RequestTimeout <= c.PollTimeout {
		return fmt.Errorf("telegram: request_timeout (%s) must exceed poll_timeout (%s)", c.RequestTimeout, c.PollTimeout)
	}
	return nil
}

// Client calls the Bot API.
type Client struct {
	http  *httpclient.Client
	cfg   Config
	retry resilience.RetryConfig
	log   *logger.Logger
}

// New creates a Bot API client.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("telegram")

	hc, err := httpclient.New(httpclient.Config{
		BaseURL:     strings.TrimRight(cfg.APIURL, "/"),
		Timeout:     cfg.RequestTimeout,
		Headers:     map[string]string{"User-Agent": version.UserAgent()},
		RateLimiter: &resilience.RateLimiterConfig{Rate: cfg.RateLimit, Burst: max(1, int(cfg.RateLimit))},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxAttempts
	retry.MaxBackoff = time.Minute
	retry.RetryIf = IsRetryable
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("Retrying Bot API call", logger.Fields("attempt", attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
	}
	return &Client{http: hc, cfg: cfg, retry: retry, log: log}, nil
}

// PollTimeout returns the long-poll timeout.
func (c *Client) PollTimeout() time.Duration { return c.cfg.PollTimeout }

// call invokes method and decodes the result, retrying retryable failures.
// Methods without parameters are sent as GET, the rest as a POSTed body.
func call[T any](ctx context.Context, c *Client, method string, body any) (T, error) {
	result, err := resilience.Retry(ctx, c.retry, func() (T, error) {
		return callOnce[T](ctx, c, method, body)
	})
	return result, redact(err, c.cfg.Token)
}

func callOnce[T any](ctx context.Context, c *Client, method string, body any) (T, error) {
	var zero T
	path := "bot" + c.cfg.Token + "/" + method
	var resp *httpclient.TypedResponse[apiResponse[T]]
	var err error
	if body == nil {
		resp, err = httpclient.Get[apiResponse[T]](c.http, ctx, path)
	} else {
		resp, err = httpclient.Post[apiResponse[T]](c.http, ctx, path, body)
	}
	if resp != nil && !resp.Data.OK && resp.Data.Description != "" {
		apiErr := &APIError{Method: method, Code: resp.Data.ErrorCode, Description: resp.Data.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if p := resp.Data.Parameters; p != nil && p.RetryAfter > 0 {
			apiErr.retryAfter = time.Duration(p.RetryAfter) * time.Second
		}
		return zero, apiErr
	}
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %w", method, err)
	}
	return resp.Data.Result, nil
}

// GetMe returns the bot's own identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	u, err := call[User](ctx, c, "getMe", nil)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "my_chat_member"},
	})
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := call[File](ctx, c, "getFile", map[string]any{"file_id": fileID})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FileURL returns the download URL for a path returned by GetFile.
func (c *Client) FileURL(filePath string) string {
	return strings.TrimRight(c.cfg.APIURL, "/") + "/file/bot" + c.cfg.Token + "/" + strings.TrimLeft(filePath, "/")
}

// ResolveDownloadURL resolves a file id straight to its download URL.
func (c *Client) ResolveDownloadURL(ctx context.Context, fileID string) (string, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	if f.FilePath == "" {
		return "", fmt.Errorf("telegram getFile: no file_path for %s", fileID)
	}
	return c.FileURL(f.FilePath), nil
}

// SendMessage sends text to chatID, as a reply when replyTo is non-zero.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error {
	body := map[string]any{"chat_id": chatID, "text": text}
	if replyTo != 0 {
		body["reply_parameters"] = replyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}
	_, err := call[Message](ctx, c, "sendMessage", body)
	return err
}

// SendDocument uploads the file at path under displayName. The file is
// streamed from disk on every attempt.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path, displayName string, replyTo int64) error {
	fields := map[string]string{"chat_id": strconv.FormatInt(chatID, 10)}
	if replyTo != 0 {
		fields["reply_parameters"] = fmt.Sprintf(`{"message_id":%d,"allow_sending_without_reply":true}`, replyTo)
	}
	body := &httpclient.MultipartBody{
		Fields: fields,
		Files:  []httpclient.FileField{{FieldName: "document", FileName: displayName, Path: path}},
	}
	_, err := call[Message](ctx, c, "sendDocument", body)
	return err
}
