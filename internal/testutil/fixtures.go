// internal/testutil/fixtures.go
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Password is the password of every seeded account.
const Password = "password1"

var signingKey = []byte("chaospanel-test-signing-key")

// tokenExpiry is far enough out that seeded tokens never expire in tests.
var tokenExpiry = time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

// TokenFor returns a signed token for a seeded account id, carrying the
// claims the fake service issues on login.
func TokenFor(id string) string {
	for _, a := range seedAccounts() {
		if a.ID == id {
			return signToken(a, tokenExpiry)
		}
	}
	return signToken(fakeAccount{ID: id}, tokenExpiry)
}

// ExpiredTokenFor returns a token for id whose expiry has already passed.
func ExpiredTokenFor(id string) string {
	return signToken(fakeAccount{ID: id}, time.Now().Add(-time.Hour))
}

func signToken(a fakeAccount, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    a.ID,
		"role":  string(a.Role),
		"email": a.Email,
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return s
}

type fakeAccount struct {
	ID       string
	Email    string
	Password string
	Role     models.Role
}

type fakeReport struct {
	ID        string
	Message   string
	CreatedAt string
	Anonymous bool
	AuthorID  string
}

func seedAccounts() []fakeAccount {
	return []fakeAccount{
		{ID: "1", Email: "andrei@chaos.io", Password: Password, Role: models.RolePrimaryAdmin},
		{ID: "7", Email: "daemon7@chaos.io", Password: Password, Role: models.RoleRecruiter},
		{ID: "8", Email: "daemon8@chaos.io", Password: Password, Role: models.RoleRecruiter},
		{ID: "9", Email: "netadmin@chaos.io", Password: Password, Role: models.RoleSubordinate},
	}
}

func seedReports() []fakeReport {
	return []fakeReport{
		{ID: "1", Message: "Grid sector 4 went dark", CreatedAt: "2024-05-01T08:00:00", Anonymous: true},
		{ID: "2", Message: "[DAEMON] Recruitment drive on schedule", CreatedAt: "2024-05-10T23:00:00", AuthorID: "7"},
		{ID: "3", Message: "[ANOMALY] Packet storm near relay 12", CreatedAt: "2024-05-12T09:30:00", AuthorID: "9"},
		{ID: "5", Message: "Left behind by a deleted account", CreatedAt: "2024-05-15T12:00:00", AuthorID: "42"},
	}
}

// FakeGateway is an in-memory stand-in for the remote accounts/reports
// service, served over httptest. It is seeded with accounts 1 (ANDREI),
// 7 and 8 (DAEMON), 9 (NETWORK_ADMIN) and reports 1 (anonymous), 2 (by 7),
// 3 (by 9) and 5 (by the missing account 42). Every seeded password is
// Password.
type FakeGateway struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts []fakeAccount
	reports  []fakeReport
	nextID   int
	calls    []string
	failures map[string]int
	garbled  map[string]bool
	assigned []string
}

// NewFakeGateway starts the fake service and stops it when t ends.
func NewFakeGateway(t *testing.T) *FakeGateway {
	t.Helper()
	g := &FakeGateway{
		accounts: seedAccounts(),
		reports:  seedReports(),
		nextID:   100,
		failures: map[string]int{},
		garbled:  map[string]bool{},
	}
	g.Server = httptest.NewServer(g.router())
	t.Cleanup(g.Server.Close)
	return g
}

// URL is the service root.
func (g *FakeGateway) URL() string { return g.Server.URL }

// Fail makes the next request to route (e.g. "DELETE /api/reports/{id}")
// answer with status.
func (g *FakeGateway) Fail(route string, status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[route] = status
}

// Garble makes the next request to route answer 200 with a JSON object where
// a list endpoint would send an array.
func (g *FakeGateway) Garble(route string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.garbled[route] = true
}

// Calls returns "METHOD /path" for each request served, in order.
func (g *FakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// Assigned returns "id:action" for each action assignment received.
func (g *FakeGateway) Assigned() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.assigned...)
}

// AccountRole returns the stored role for id.
func (g *FakeGateway) AccountRole(id string) (models.Role, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.accounts {
		if a.ID == id {
			return a.Role, true
		}
	}
	return "", false
}

// HasAccount reports whether an account with email exists.
func (g *FakeGateway) HasAccount(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findByEmail(email) >= 0
}

// ReportMessages returns every stored report message keyed by id.
func (g *FakeGateway) ReportMessages() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]string, len(g.reports))
	for _, r := range g.reports {
		out[r.ID] = r.Message
	}
	return out
}

// ReportAuthor returns the stored author id and anonymity of report id.
func (g *FakeGateway) ReportAuthor(id string) (author string, anonymous, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.reports {
		if r.ID == id {
			return r.AuthorID, r.Anonymous, true
		}
	}
	return "", false, false
}

// LastReportID returns the id of the most recently stored report.
func (g *FakeGateway) LastReportID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.reports) == 0 {
		return ""
	}
	return g.reports[len(g.reports)-1].ID
}

func (g *FakeGateway) router() http.Handler {
	r := chi.NewRouter()
	g.handle(r, http.MethodGet, "/", g.root)
	g.handle(r, http.MethodPost, "/auth/login", g.login)
	g.handle(r, http.MethodPost, "/auth/register", g.register)
	g.handle(r, http.MethodGet, "/auth/allUsers", g.authed(g.listAccounts))
	g.handle(r, http.MethodPut, "/auth/update/{id}", g.authed(g.updateRole))
	g.handle(r, http.MethodDelete, "/auth/delete/{id}", g.authed(g.deleteAccount))
	g.handle(r, http.MethodGet, "/api/reports", g.authed(g.listReports))
	g.handle(r, http.MethodPost, "/api/reports", g.authed(g.createReport))
	g.handle(r, http.MethodPut, "/api/reports/{id}", g.authed(g.updateReport))
	g.handle(r, http.MethodDelete, "/api/reports/{id}", g.authed(g.deleteReport))
	g.handle(r, http.MethodGet, "/api/reports/user/{id}", g.authed(g.listByAuthor))
	g.handle(r, http.MethodPost, "/api/daemon/register", g.authed(g.registerSubordinate))
	g.handle(r, http.MethodPost, "/api/daemon/assign/{id}", g.authed(g.assign))
	return r
}

func (g *FakeGateway) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	route := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		g.mu.Lock()
		g.calls = append(g.calls, method+" "+req.URL.Path)
		status, fail := g.failures[route]
		delete(g.failures, route)
		garble := g.garbled[route]
		delete(g.garbled, route)
		g.mu.Unlock()
		if fail {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		if garble {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		h(w, req)
	}))
}

func (g *FakeGateway) authed(h func(w http.ResponseWriter, r *http.Request, actor fakeAccount)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		mc := jwt.MapClaims{}
		_, err := jwt.NewParser().ParseWithClaims(raw, mc, func(*jwt.Token) (any, error) { return signingKey, nil })
		if raw == "" || err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		id, _ := mc["id"].(string)
		g.mu.Lock()
		i := g.findByID(id)
		var actor fakeAccount
		if i >= 0 {
			actor = g.accounts[i]
		}
		g.mu.Unlock()
		if i < 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unknown account"})
			return
		}
		h(w, r, actor)
	}
}

func (g *FakeGateway) root(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *FakeGateway) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	_ = json.NewDecoder(r.Body).Decode(&c)
	g.mu.Lock()
	i := g.findByEmail(c.Email)
	var a fakeAccount
	if i >= 0 {
		a = g.accounts[i]
	}
	g.mu.Unlock()
	if i < 0 || a.Password != c.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  signToken(a, tokenExpiry),
		"role":   string(a.Role),
		"userId": numericOrString(a.ID),
		"email":  a.Email,
	})
}

func (g *FakeGateway) register(w http.ResponseWriter, r *http.Request) {
	g.create(w, r, models.RoleSubordinate)
}

func (g *FakeGateway) registerSubordinate(w http.ResponseWriter, r *http.Request, actor fakeAccount) {
	if actor.Role != models.RoleRecruiter {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Recruiters only"})
		return
	}
	g.create(w, r, models.RoleSubordinate)
}

func (g *FakeGateway) create(w http.ResponseWriter, r *http.Request, role models.Role) {
	var c credentials
	_ = json.NewDecoder(r.Body).Decode(&c)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.findByEmail(c.Email) >= 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
		return
	}
	a := fakeAccount{ID: g.newID(), Email: strings.ToLower(c.Email), Password: c.Password, Role: role}
	g.accounts = append(g.accounts, a)
	writeJSON(w, http.StatusCreated, accountJSON(a))
}

func (g *FakeGateway) listAccounts(w http.ResponseWriter, _ *http.Request, _ fakeAccount) {
	g.mu.Lock()
	out := make([]map[string]any, 0, len(g.accounts))
	for _, a := range g.accounts {
		out = append(out, accountJSON(a))
	}
	g.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (g *FakeGateway) updateRole(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	body, _ := io.ReadAll(r.Body)
	role := models.Role(strings.TrimSpace(string(body)))
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.findByID(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Account not found"})
		return
	}
	g.accounts[i].Role = role
	writeJSON(w, http.StatusOK, accountJSON(g.accounts[i]))
}

func (g *FakeGateway) deleteAccount(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.findByID(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Account not found"})
		return
	}
	g.accounts = append(g.accounts[:i], g.accounts[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (g *FakeGateway) listReports(w http.ResponseWriter, _ *http.Request, _ fakeAccount) {
	g.writeReports(w, func(fakeReport) bool { return true })
}

func (g *FakeGateway) listByAuthor(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	id := chi.URLParam(r, "id")
	g.writeReports(w, func(rep fakeReport) bool { return rep.AuthorID == id })
}

func (g *FakeGateway) writeReports(w http.ResponseWriter, keep func(fakeReport) bool) {
	g.mu.Lock()
	out := []map[string]any{}
	for _, rep := range g.reports {
		if keep(rep) {
			out = append(out, reportJSON(rep))
		}
	}
	g.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

type reportBody struct {
	Message   string  `json:"message"`
	Anonymous bool    `json:"anonymous"`
	UserID    *string `json:"userId"`
}

func (b reportBody) author() string {
	if b.Anonymous || b.UserID == nil {
		return ""
	}
	return *b.UserID
}

func (g *FakeGateway) createReport(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	var b reportBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed report"})
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	rep := fakeReport{
		ID:        g.newID(),
		Message:   b.Message,
		CreatedAt: time.Now().UTC().Format("2006-01-02T15:04:05"),
		Anonymous: b.Anonymous,
		AuthorID:  b.author(),
	}
	g.reports = append(g.reports, rep)
	writeJSON(w, http.StatusCreated, reportJSON(rep))
}

func (g *FakeGateway) updateReport(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	var b reportBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed report"})
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.findReport(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Report not found"})
		return
	}
	g.reports[i].Message = b.Message
	g.reports[i].Anonymous = b.Anonymous
	g.reports[i].AuthorID = b.author()
	writeJSON(w, http.StatusOK, reportJSON(g.reports[i]))
}

func (g *FakeGateway) deleteReport(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.findReport(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Report not found"})
		return
	}
	g.reports = append(g.reports[:i], g.reports[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (g *FakeGateway) assign(w http.ResponseWriter, r *http.Request, _ fakeAccount) {
	id := chi.URLParam(r, "id")
	action := r.URL.Query().Get("action")
	g.mu.Lock()
	i := g.findByID(id)
	var email string
	if i >= 0 {
		email = g.accounts[i].Email
		g.assigned = append(g.assigned, id+":"+action)
	}
	g.mu.Unlock()
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Account not found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "Action '"+action+"' assigned to "+email+"\n")
}

func (g *FakeGateway) findByID(id string) int {
	for i, a := range g.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (g *FakeGateway) findByEmail(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	for i, a := range g.accounts {
		if a.Email == email {
			return i
		}
	}
	return -1
}

func (g *FakeGateway) findReport(id string) int {
	for i, r := range g.reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (g *FakeGateway) newID() string {
	g.nextID++
	return strconv.Itoa(g.nextID)
}

// numericOrString sends ids as JSON numbers when they look like one, as the
// real service does.
func numericOrString(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

func accountJSON(a fakeAccount) map[string]any {
	return map[string]any{"id": numericOrString(a.ID), "email": a.Email, "role": string(a.Role)}
}

func reportJSON(r fakeReport) map[string]any {
	out := map[string]any{
		"id":        numericOrString(r.ID),
		"message":   r.Message,
		"createdAt": r.CreatedAt,
		"anonymous": r.Anonymous,
	}
	if r.AuthorID != "" {
		out["userId"] = numericOrString(r.AuthorID)
	} else {
		out["userId"] = nil
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
