// internal/app/system/gateway/accounts.go
package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// LoginResult is the identity the service returns for valid credentials.
type LoginResult struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	ID     FlexID `json:"id"`
	UserID FlexID `json:"userId"`
	Email  string `json:"email"`
}

// AccountID returns the identity from whichever field the service populated.
func (l LoginResult) AccountID() string {
	if l.UserID.Present() {
		return l.UserID.String()
	}
	return l.ID.String()
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, nil, request{
		op:        "login",
		method:    http.MethodPost,
		path:      "/auth/login",
		jsonBody:  credentialsBody{Email: email, Password: password},
		anonymous: true,
	}, &out)
	return out, err
}

// Register creates an account without a credential (public sign-up).
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.do(ctx, nil, request{
		op:        "register",
		method:    http.MethodPost,
		path:      "/auth/register",
		jsonBody:  credentialsBody{Email: email, Password: password},
		anonymous: true,
	}, nil)
}

// ListAccounts returns every account as raw records.
func (c *Client) ListAccounts(ctx context.Context, cred Credentials) (RawList, error) {
	var out RawList
	err := c.do(ctx, cred, request{
		op:     "list_accounts",
		method: http.MethodGet,
		path:   "/auth/allUsers",
	}, &out)
	return out, err
}

// CreateAccount registers an account on behalf of an administrator. The
// service assigns the default role.
func (c *Client) CreateAccount(ctx context.Context, cred Credentials, email, password string) error {
	return c.do(ctx, cred, request{
		op:       "create_account",
		method:   http.MethodPost,
		path:     "/auth/register",
		jsonBody: credentialsBody{Email: email, Password: password},
	}, nil)
}

// UpdateAccountRole sets an account's role. The role travels as a bare
// text/plain body, not a JSON document.
func (c *Client) UpdateAccountRole(ctx context.Context, cred Credentials, id, role string) error {
	return c.do(ctx, cred, request{
		op:       "update_account_role",
		method:   http.MethodPut,
		path:     "/auth/update/" + url.PathEscape(id),
		textBody: &role,
	}, nil)
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, cred Credentials, id string) error {
	return c.do(ctx, cred, request{
		op:     "delete_account",
		method: http.MethodDelete,
		path:   "/auth/delete/" + url.PathEscape(id),
	}, nil)
}
