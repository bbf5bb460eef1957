// Package api talks to the job board backend over HTTP and normalizes its
// responses at the boundary, so callers only ever see plain values or a
// classified *Error.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/model"
)

// DefaultTimeout bounds every request when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 8 << 20

// Paths holds endpoint templates. {userId} and {id} are substituted.
type Paths struct {
	Companies     string
	JobTypes      string
	Jobs          string
	Notifications string
	UnreadCount   string
	MarkRead      string
	MarkAllRead   string
	Delete        string
}

// DefaultPaths returns the stock backend routes.
func DefaultPaths() Paths {
	return Paths{
		Companies:     "/api/Company",
		JobTypes:      "/api/JobType",
		Jobs:          "/api/Job",
		Notifications: "/api/Notification/user/{userId}",
		UnreadCount:   "/api/Notification/user/{userId}/unread-count",
		MarkRead:      "/api/Notification/{id}/read",
		MarkAllRead:   "/api/Notification/user/{userId}/read-all",
		Delete:        "/api/Notification/{id}",
	}
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	Paths      Paths
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is the HTTP data source for both the search aggregator and the
// notification engine.
type Client struct {
	base   *url.URL
	token  string
	paths  Paths
	http   *http.Client
	logger *zap.Logger
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Paths == (Paths{}) {
		opts.Paths = DefaultPaths()
	}
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	hc.Timeout = opts.Timeout
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   base,
		token:  opts.Token,
		paths:  opts.Paths,
		http:   hc,
		logger: logger.Named("api"),
	}, nil
}

// Companies fetches the full company catalog.
func (c *Client) Companies(ctx context.Context) ([]model.Company, error) {
	return getList[model.Company](ctx, c, "companies", c.paths.Companies, vars{})
}

// JobTypes fetches the full job type catalog.
func (c *Client) JobTypes(ctx context.Context) ([]model.JobType, error) {
	return getList[model.JobType](ctx, c, "job_types", c.paths.JobTypes, vars{})
}

// Jobs fetches every job posting.
func (c *Client) Jobs(ctx context.Context) ([]model.Job, error) {
	return getList[model.Job](ctx, c, "jobs", c.paths.Jobs, vars{})
}

// Notifications fetches the notifications addressed to userID.
func (c *Client) Notifications(ctx context.Context, userID model.ID) ([]model.Notification, error) {
	return getList[model.Notification](ctx, c, "notifications", c.paths.Notifications, vars{userID: userID})
}

// UnreadCount fetches the server-side unread counter for userID.
func (c *Client) UnreadCount(ctx context.Context, userID model.ID) (int, error) {
	const op = "unread_count"
	body, err := c.do(ctx, op, http.MethodGet, c.paths.UnreadCount, vars{userID: userID})
	if err != nil {
		return 0, err
	}
	n, serr := decodeCount(body)
	if serr != nil {
		return 0, serr.asError(op)
	}
	return n, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, id model.ID) error {
	return c.mutate(ctx, "mark_read", http.MethodPut, c.paths.MarkRead, vars{id: id})
}

// MarkAllRead marks every notification of userID as read.
func (c *Client) MarkAllRead(ctx context.Context, userID model.ID) error {
	return c.mutate(ctx, "mark_all_read", http.MethodPut, c.paths.MarkAllRead, vars{userID: userID})
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id model.ID) error {
	return c.mutate(ctx, "delete_notification", http.MethodDelete, c.paths.Delete, vars{id: id})
}

type vars struct {
	userID model.ID
	id     model.ID
}

func (c *Client) resolve(tmpl string, v vars) string {
	p := strings.NewReplacer(
		"{userId}", strconv.Itoa(int(v.userID)),
		"{id}", strconv.Itoa(int(v.id)),
	).Replace(tmpl)
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(p, "/")
	return u.String()
}

func getList[T any](ctx context.Context, c *Client, op, tmpl string, v vars) ([]T, error) {
	body, err := c.do(ctx, op, http.MethodGet, tmpl, v)
	if err != nil {
		return nil, err
	}
	items, serr := decodeList[T](body)
	if serr != nil {
		return nil, serr.asError(op)
	}
	return items, nil
}

func (c *Client) mutate(ctx context.Context, op, method, tmpl string, v vars) error {
	body, err := c.do(ctx, op, method, tmpl, v)
	if err != nil {
		return err
	}
	if serr := checkAck(body); serr != nil {
		return serr.asError(op)
	}
	return nil
}

// do performs the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, tmpl string, v vars) ([]byte, error) {
	target := c.resolve(tmpl, v)
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Message: "failed to create request", Cause: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Op: op, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, StatusCode: resp.StatusCode, Message: "failed to read body", Cause: err}
	}
	c.logger.Debug("request done",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if serr := checkAck(body); serr != nil {
			msg = serr.message
		}
		return nil, &Error{Kind: KindRejected, Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}

func (e *shapeError) asError(op string) *Error {
	return &Error{Kind: e.kind, Op: op, Message: e.message, Cause: e.cause}
}

// IsCanceled reports whether err stems from the caller's context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
