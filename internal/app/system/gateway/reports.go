// internal/app/system/gateway/reports.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ReportBody is the payload for creating or updating a report. AuthorID is
// sent as null when absent.
type ReportBody struct {
	Message   string
	Anonymous bool
	AuthorID  string
}

func (b ReportBody) MarshalJSON() ([]byte, error) {
	var author *string
	if b.AuthorID != "" {
		author = &b.AuthorID
	}
	return json.Marshal(struct {
		Message   string  `json:"message"`
		Anonymous bool    `json:"anonymous"`
		UserID    *string `json:"userId"`
	}{b.Message, b.Anonymous, author})
}

// ListReports returns every report as raw records.
func (c *Client) ListReports(ctx context.Context, cred Credentials) (RawList, error) {
	var out RawList
	err := c.do(ctx, cred, request{
		op:     "list_reports",
		method: http.MethodGet,
		path:   "/api/reports",
	}, &out)
	return out, err
}

// ListReportsByAuthor returns the reports attributed to one account.
func (c *Client) ListReportsByAuthor(ctx context.Context, cred Credentials, accountID string) (RawList, error) {
	var out RawList
	err := c.do(ctx, cred, request{
		op:     "list_reports_by_author",
		method: http.MethodGet,
		path:   "/api/reports/user/" + url.PathEscape(accountID),
	}, &out)
	return out, err
}

// CreateReport submits a new report and returns the stored record.
func (c *Client) CreateReport(ctx context.Context, cred Credentials, body ReportBody) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, cred, request{
		op:       "create_report",
		method:   http.MethodPost,
		path:     "/api/reports",
		jsonBody: body,
	}, &out)
	return out, err
}

// UpdateReport replaces a report's message, anonymity, and author.
func (c *Client) UpdateReport(ctx context.Context, cred Credentials, id string, body ReportBody) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, cred, request{
		op:       "update_report",
		method:   http.MethodPut,
		path:     "/api/reports/" + url.PathEscape(id),
		jsonBody: body,
	}, &out)
	return out, err
}

// DeleteReport removes a report.
func (c *Client) DeleteReport(ctx context.Context, cred Credentials, id string) error {
	return c.do(ctx, cred, request{
		op:     "delete_report",
		method: http.MethodDelete,
		path:   "/api/reports/" + url.PathEscape(id),
	}, nil)
}
