// Package sheets is the sheet resource client. It builds request descriptors for
// the sheets endpoints, sends them through an httpclient.Transport and decodes the
// results, turning non-success responses into *APIError values.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/sheetsdk/config"
	"github.com/gaborage/sheetsdk/httpclient"
	"github.com/gaborage/sheetsdk/logger"
)

const (
	// DefaultRetryWindow bounds the retries of DefaultRetryPolicy
	DefaultRetryWindow = 15 * time.Second

	objectTypeSheet = "sheet"
)

// retryableStatuses are the responses the API documents as transient.
var retryableStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// DefaultRetryPolicy retries rate limiting and transient server errors until
// DefaultRetryWindow has passed since the first attempt.
func DefaultRetryPolicy() httpclient.RetryPolicy {
	return httpclient.AllOf(
		httpclient.OnStatus(retryableStatuses...),
		httpclient.MaxElapsed(DefaultRetryWindow),
	)
}

// Client calls the sheets endpoints. It holds no per-call state and is safe for
// concurrent use when its transport is.
type Client struct {
	transport httpclient.Transport
	baseURL   string
	token     string
}

type clientParams struct {
	BaseURL string `validate:"required,url"`
	Token   string `validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func paramValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(transport httpclient.Transport, baseURL, token string) (*Client, error) {
	if transport == nil {
		return nil, httpclient.NewInvalidArgumentError("transport", "a transport is required")
	}
	params := clientParams{BaseURL: baseURL, Token: token}
	if err := paramValidator().Struct(params); err != nil {
		return nil, httpclient.NewInvalidArgumentError("client", err.Error())
	}
	return &Client{
		transport: transport,
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
	}, nil
}

// NewFromConfig creates a transport from cfg and a Client over it. Without a
// configured retry.maxattempts the transport uses DefaultRetryPolicy. The transport
// is returned so the caller can Close it.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Client, *httpclient.Client, error) {
	b, err := httpclient.NewBuilderFromConfig(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.HTTP.Retry.MaxAttempts == 0 {
		b.WithRetryPolicy(DefaultRetryPolicy())
	}
	transport, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	c, err := NewClient(transport, cfg.HTTP.BaseURL, cfg.HTTP.Token)
	if err != nil {
		return nil, nil, err
	}
	return c, transport, nil
}

// ListSheets lists the sheets accessible to the caller. paging and modifiedSince are optional.
func (c *Client) ListSheets(ctx context.Context, includes []Inclusion, paging *Pagination, modifiedSince *time.Time) (*PaginatedResult[Sheet], error) {
	query := url.Values{}
	if len(includes) > 0 {
		names := make([]string, len(includes))
		for i, inc := range includes {
			names[i] = string(inc)
		}
		query.Set("include", strings.Join(names, ","))
	}
	if paging != nil {
		if err := paramValidator().Struct(paging); err != nil {
			return nil, httpclient.NewInvalidArgumentError("paging", err.Error())
		}
		if paging.IncludeAll {
			query.Set("includeAll", "true")
		} else {
			if paging.Page > 0 {
				query.Set("page", strconv.Itoa(paging.Page))
			}
			if paging.PageSize > 0 {
				query.Set("pageSize", strconv.Itoa(paging.PageSize))
			}
		}
	}
	if modifiedSince != nil {
		query.Set("modifiedSince", modifiedSince.UTC().Format(time.RFC3339))
	}

	var page PaginatedResult[Sheet]
	if err := c.do(ctx, httpclient.MethodGet, c.endpoint(query, "sheets"), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetSheet returns the sheet with the given id.
func (c *Client) GetSheet(ctx context.Context, id int64) (*Sheet, error) {
	var sheet Sheet
	if err := c.do(ctx, httpclient.MethodGet, c.endpoint(nil, "sheets", id), nil, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// GetSheetVersion returns the current version number of a sheet.
func (c *Client) GetSheetVersion(ctx context.Context, id int64) (int, error) {
	var v sheetVersion
	if err := c.do(ctx, httpclient.MethodGet, c.endpoint(nil, "sheets", id, "version"), nil, &v); err != nil {
		return 0, err
	}
	return v.Version, nil
}

// UpdateSheet renames a sheet and returns the updated sheet.
func (c *Client) UpdateSheet(ctx context.Context, sheet *Sheet) (*Sheet, error) {
	if sheet == nil || sheet.ID == 0 {
		return nil, httpclient.NewInvalidArgumentError("sheet", "a sheet with an id is required")
	}
	body, err := json.Marshal(struct {
		Name string `json:"name"`
	}{Name: sheet.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sheet: %w", err)
	}

	var res result[Sheet]
	if err := c.do(ctx, httpclient.MethodPut, c.endpoint(nil, "sheets", sheet.ID), body, &res); err != nil {
		return nil, err
	}
	return &res.Result, nil
}

// DeleteSheet deletes a sheet.
func (c *Client) DeleteSheet(ctx context.Context, id int64) error {
	return c.do(ctx, httpclient.MethodDelete, c.endpoint(nil, "sheets", id), nil, nil)
}

// AttachFile uploads the file at filePath to a sheet. The upload is sent once.
func (c *Client) AttachFile(ctx context.Context, sheetID int64, filePath, contentType string) (*Attachment, error) {
	req := &httpclient.Request{
		Method:  httpclient.MethodPost,
		URL:     c.endpoint(nil, "sheets", sheetID, "attachments"),
		Headers: c.headers(),
	}
	resp, err := c.transport.RequestWithFile(ctx, req, objectTypeSheet, filePath, contentType)
	if err != nil {
		return nil, err
	}

	var res result[Attachment]
	if err := decode(resp, &res); err != nil {
		return nil, err
	}
	return &res.Result, nil
}

func (c *Client) do(ctx context.Context, method httpclient.Method, uri string, body []byte, out any) error {
	req := &httpclient.Request{
		Method:  method,
		URL:     uri,
		Headers: c.headers(),
	}
	if body != nil {
		req.Entity = &httpclient.Entity{
			ContentType:   "application/json",
			ContentLength: int64(len(body)),
			Content:       body,
		}
	}

	resp, err := c.transport.Request(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// endpoint joins path segments onto the base URL and appends the query.
func (c *Client) endpoint(query url.Values, segments ...any) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(fmt.Sprint(s)))
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// decode turns non-success responses into *APIError and unmarshals the rest into out.
func decode(resp *httpclient.Response, out any) error {
	if !httpclient.IsSuccessStatus(resp.StatusCode) {
		return newAPIError(resp)
	}
	if out == nil || resp.Entity == nil || len(resp.Entity.Content) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Entity.Content, out); err != nil {
		return fmt.Errorf("failed to decode %d response: %w", resp.StatusCode, err)
	}
	return nil
}
