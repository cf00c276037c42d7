// internal/app/projection/mutations.go
package projection

import (
	"context"
	"strings"

	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"go.uber.org/zap"
)

// Mutation operation names, used in audit events and logs.
const (
	OpCreateReport        = "create_report"
	OpUpdateReport        = "update_report"
	OpDeleteReport        = "delete_report"
	OpCreateAccount       = "create_account"
	OpReassignRole        = "reassign_role"
	OpDeleteAccount       = "delete_account"
	OpRegisterSubordinate = "register_subordinate"
	OpAssignAction        = "assign_action"
)

// Mutation describes one attempted change, successful or not.
type Mutation struct {
	Op        string
	ActorID   string
	ActorRole models.Role
	TargetID  string
	Details   map[string]string
	Err       error
}

// Auditor receives every mutation the engine sends to the service.
type Auditor interface {
	Mutation(ctx context.Context, m Mutation)
}

// ReportInput is the user's submission for a new or edited report.
type ReportInput struct {
	Message   string
	Anonymous bool
	AuthorID  string
}

// body validates in and builds the request payload. An anonymous report is
// always sent without an author.
func (in ReportInput) body() (gateway.ReportBody, error) {
	msg := normalize.Message(in.Message)
	if msg == "" {
		return gateway.ReportBody{}, invalid("message", "Report message cannot be empty.")
	}
	b := gateway.ReportBody{Message: msg, Anonymous: in.Anonymous}
	if !in.Anonymous {
		b.AuthorID = strings.TrimSpace(in.AuthorID)
	}
	return b, nil
}

// CreateReport submits a report and reloads.
func (e *Engine) CreateReport(ctx context.Context, in ReportInput) error {
	body, err := in.body()
	if err != nil {
		return err
	}
	return e.mutate(ctx, Mutation{Op: OpCreateReport, Details: reportDetails(body)}, func() error {
		_, err := e.gw.CreateReport(ctx, e.id, body)
		return err
	})
}

// UpdateReport replaces a report's content and reloads.
func (e *Engine) UpdateReport(ctx context.Context, id string, in ReportInput) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("report", "Select a report to edit.")
	}
	body, err := in.body()
	if err != nil {
		return err
	}
	return e.mutate(ctx, Mutation{Op: OpUpdateReport, TargetID: id, Details: reportDetails(body)}, func() error {
		_, err := e.gw.UpdateReport(ctx, e.id, id, body)
		return err
	})
}

// DeleteReport removes a report and reloads.
func (e *Engine) DeleteReport(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("report", "Select a report to delete.")
	}
	return e.mutate(ctx, Mutation{Op: OpDeleteReport, TargetID: id}, func() error {
		return e.gw.DeleteReport(ctx, e.id, id)
	})
}

// CreateAccount registers an account with the service's default role and
// reloads.
func (e *Engine) CreateAccount(ctx context.Context, email, password string) error {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return invalid("account", "Email and password are required.")
	}
	return e.mutate(ctx, Mutation{Op: OpCreateAccount, Details: map[string]string{"email": email}}, func() error {
		return e.gw.CreateAccount(ctx, e.id, email, password)
	})
}

// ReassignRole changes an existing account's role and reloads.
func (e *Engine) ReassignRole(ctx context.Context, id string, role models.Role) error {
	id, err := e.existingAccount(id)
	if err != nil {
		return err
	}
	if !role.Valid() {
		return invalid("role", "Choose a valid role.")
	}
	return e.mutate(ctx, Mutation{Op: OpReassignRole, TargetID: id, Details: map[string]string{"role": role.String()}}, func() error {
		return e.gw.UpdateAccountRole(ctx, e.id, id, role.String())
	})
}

// DeleteAccount removes an existing account and reloads.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	id, err := e.existingAccount(id)
	if err != nil {
		return err
	}
	return e.mutate(ctx, Mutation{Op: OpDeleteAccount, TargetID: id}, func() error {
		return e.gw.DeleteAccount(ctx, e.id, id)
	})
}

// RegisterSubordinate enrols a subordinate account and reloads.
func (e *Engine) RegisterSubordinate(ctx context.Context, email, password string) error {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return invalid("account", "Email and password are required.")
	}
	return e.mutate(ctx, Mutation{Op: OpRegisterSubordinate, Details: map[string]string{"email": email}}, func() error {
		return e.gw.RegisterSubordinate(ctx, e.id, email, password)
	})
}

// AssignAction sends an action to an existing account and returns the
// service's reply. Nothing in the held collections changes, so there is no
// reload.
func (e *Engine) AssignAction(ctx context.Context, id, action string) (string, error) {
	id, err := e.existingAccount(id)
	if err != nil {
		return "", err
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return "", invalid("action", "Action cannot be empty.")
	}

	reply, err := e.gw.AssignAction(ctx, e.id, id, action)
	e.record(ctx, Mutation{Op: OpAssignAction, TargetID: id, Details: map[string]string{"action": action}, Err: err})
	return reply, err
}

// existingAccount checks that id names an account in the held snapshot.
func (e *Engine) existingAccount(id string) (string, error) {
	id = normalize.ID(id)
	if id == "" {
		return "", invalid("account", "Select an account.")
	}
	snap := e.Snapshot()
	if snap == nil || !snap.index.Has(id) {
		return "", invalid("account", "That account is not in the current list. Refresh and try again.")
	}
	return id, nil
}

// mutate sends one change and, only after the service acknowledges it,
// reloads. A failed send leaves the snapshot untouched.
func (e *Engine) mutate(ctx context.Context, m Mutation, send func() error) error {
	err := send()
	e.record(ctx, withErr(m, err))
	if err != nil {
		return err
	}
	if err := e.Reload(ctx); err != nil {
		return &ReloadError{Op: m.Op, Err: err}
	}
	return nil
}

func (e *Engine) record(ctx context.Context, m Mutation) {
	m.ActorID = e.id.AccountID()
	m.ActorRole = e.id.Role()
	if m.Err != nil {
		e.log.Warn("mutation failed",
			zap.String("op", m.Op),
			zap.String("target_id", m.TargetID),
			zap.Error(m.Err))
	}
	if e.audit != nil {
		e.audit.Mutation(ctx, m)
	}
}

func withErr(m Mutation, err error) Mutation {
	m.Err = err
	return m
}

func reportDetails(b gateway.ReportBody) map[string]string {
	d := map[string]string{"anonymous": "false"}
	if b.Anonymous {
		d["anonymous"] = "true"
	}
	if b.AuthorID != "" {
		d["author_id"] = b.AuthorID
	}
	return d
}
