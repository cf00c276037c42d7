// internal/app/system/gateway/daemon.go
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// RegisterSubordinate enrols a subordinate account. Only recruiters may
// call it.
func (c *Client) RegisterSubordinate(ctx context.Context, cred Credentials, email, password string) error {
	return c.do(ctx, cred, request{
		op:       "register_subordinate",
		method:   http.MethodPost,
		path:     "/api/daemon/register",
		jsonBody: credentialsBody{Email: email, Password: password},
	}, nil)
}

// AssignAction sends an action label to an account and returns the
// service's free-text answer.
func (c *Client) AssignAction(ctx context.Context, cred Credentials, accountID, action string) (string, error) {
	var out string
	err := c.do(ctx, cred, request{
		op:     "assign_action",
		method: http.MethodPost,
		path:   "/api/daemon/assign/" + url.PathEscape(accountID),
		query:  url.Values{"action": {action}},
	}, &out)
	return strings.TrimSpace(out), err
}

// Ping checks that the service answers at all. Any HTTP response, including
// 401 and 404, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, nil, request{
		op:        "ping",
		method:    http.MethodGet,
		path:      "/",
		anonymous: true,
	}, nil)
	var ge *Error
	if err != nil && errors.As(err, &ge) && ge.Status != 0 {
		return nil
	}
	return err
}
