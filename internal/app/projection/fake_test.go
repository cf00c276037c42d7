package projection_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
)

// fakeGateway is an in-memory remote service.
type fakeGateway struct {
	mu       sync.Mutex
	accounts []map[string]any
	reports  []map[string]any
	nextID   int
	calls    []string
	bodies   []gateway.ReportBody

	fail map[string]error

	// afterListReports runs after the report list is captured, outside the lock.
	afterListReports func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID: 100,
		fail:   map[string]error{},
		accounts: []map[string]any{
			{"id": 1, "email": "andrei@chaos.io", "role": "ANDREI"},
			{"id": 7, "email": "daemon@chaos.io", "role": "DAEMON"},
			{"id": "8", "email": "other.daemon@chaos.io", "role": "DAEMON"},
			{"id": 9, "email": "agent@chaos.io", "role": "NETWORK_ADMIN"},
		},
		reports: []map[string]any{
			{"id": 1, "message": "grid anomaly", "createdAt": "2024-05-09T10:00:00", "anonymous": true, "userId": nil},
			{"id": 2, "message": "Minor ERROR detected", "createdAt": "2024-05-10T23:00:00", "anonymous": false, "userId": 7},
			{"id": 5, "message": "orphan", "createdAt": "2024-05-11T08:00:00", "anonymous": false, "userId": 42},
		},
	}
}

func (f *fakeGateway) record(op string) error {
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeGateway) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func encode(items []map[string]any) gateway.RawList {
	out := make(gateway.RawList, 0, len(items))
	for _, it := range items {
		b, _ := json.Marshal(it)
		out = append(out, b)
	}
	return out
}

func idOf(m map[string]any) string { return fmt.Sprint(m["id"]) }

func without(items []map[string]any, id string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if idOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}

func authorValue(b gateway.ReportBody) any {
	if b.AuthorID == "" {
		return nil
	}
	return b.AuthorID
}

func (f *fakeGateway) ListAccounts(ctx context.Context, cred gateway.Credentials) (gateway.RawList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_accounts"); err != nil {
		return nil, err
	}
	return encode(f.accounts), nil
}

func (f *fakeGateway) ListReports(ctx context.Context, cred gateway.Credentials) (gateway.RawList, error) {
	f.mu.Lock()
	err := f.record("list_reports")
	list := encode(f.reports)
	hook := f.afterListReports
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if hook != nil {
		hook()
	}
	return list, nil
}

func (f *fakeGateway) ListReportsByAuthor(ctx context.Context, cred gateway.Credentials, accountID string) (gateway.RawList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_reports_by_author"); err != nil {
		return nil, err
	}
	var mine []map[string]any
	for _, r := range f.reports {
		if fmt.Sprint(r["userId"]) == accountID {
			mine = append(mine, r)
		}
	}
	return encode(mine), nil
}

func (f *fakeGateway) CreateAccount(ctx context.Context, cred gateway.Credentials, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_account"); err != nil {
		return err
	}
	f.nextID++
	f.accounts = append(f.accounts, map[string]any{"id": f.nextID, "email": email, "role": "NETWORK_ADMIN"})
	return nil
}

func (f *fakeGateway) UpdateAccountRole(ctx context.Context, cred gateway.Credentials, id, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_account_role"); err != nil {
		return err
	}
	for _, a := range f.accounts {
		if idOf(a) == id {
			a["role"] = role
		}
	}
	return nil
}

func (f *fakeGateway) DeleteAccount(ctx context.Context, cred gateway.Credentials, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_account"); err != nil {
		return err
	}
	f.accounts = without(f.accounts, id)
	return nil
}

func (f *fakeGateway) CreateReport(ctx context.Context, cred gateway.Credentials, body gateway.ReportBody) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_report"); err != nil {
		return nil, err
	}
	f.bodies = append(f.bodies, body)
	f.nextID++
	r := map[string]any{
		"id":        f.nextID,
		"message":   body.Message,
		"createdAt": "2024-06-01T12:00:00",
		"anonymous": body.Anonymous,
		"userId":    authorValue(body),
	}
	f.reports = append(f.reports, r)
	b, _ := json.Marshal(r)
	return b, nil
}

func (f *fakeGateway) UpdateReport(ctx context.Context, cred gateway.Credentials, id string, body gateway.ReportBody) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_report"); err != nil {
		return nil, err
	}
	f.bodies = append(f.bodies, body)
	for _, r := range f.reports {
		if idOf(r) == id {
			r["message"] = body.Message
			r["anonymous"] = body.Anonymous
			r["userId"] = authorValue(body)
		}
	}
	return nil, nil
}

func (f *fakeGateway) DeleteReport(ctx context.Context, cred gateway.Credentials, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_report"); err != nil {
		return err
	}
	f.reports = without(f.reports, id)
	return nil
}

func (f *fakeGateway) RegisterSubordinate(ctx context.Context, cred gateway.Credentials, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("register_subordinate"); err != nil {
		return err
	}
	f.nextID++
	f.accounts = append(f.accounts, map[string]any{"id": strconv.Itoa(f.nextID), "email": email, "role": "NETWORK_ADMIN"})
	return nil
}

func (f *fakeGateway) AssignAction(ctx context.Context, cred gateway.Credentials, accountID, action string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("assign_action"); err != nil {
		return "", err
	}
	return "Action '" + action + "' assigned to user " + accountID, nil
}
