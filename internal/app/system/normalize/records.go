// internal/app/system/normalize/records.go
package normalize

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"go.uber.org/zap"
)

var (
	errMissingID        = errors.New("missing id")
	errMissingEmail     = errors.New("missing email")
	errMissingMessage   = errors.New("missing message")
	errMissingCreatedAt = errors.New("missing createdAt")
	errBadCreatedAt     = errors.New("unparsable createdAt")
)

// timestampLayouts are tried in order. Layouts without a zone are read in the
// Normalizer's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer converts raw gateway records into domain values. Records missing
// required fields are dropped and logged at debug level.
type Normalizer struct {
	Loc *time.Location
	Log *zap.Logger
}

// New returns a Normalizer reading zone-less timestamps in loc (UTC when nil).
func New(loc *time.Location, logger *zap.Logger) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{Loc: loc, Log: logger}
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.Loc == nil {
		return time.UTC
	}
	return n.Loc
}

func (n *Normalizer) logger() *zap.Logger {
	if n == nil || n.Log == nil {
		return zap.NewNop()
	}
	return n.Log
}

// Accounts normalizes a raw account list, preserving arrival order.
func (n *Normalizer) Accounts(list gateway.RawList) []models.Account {
	out := make([]models.Account, 0, len(list))
	for i, raw := range list {
		var ra gateway.RawAccount
		if err := json.Unmarshal(raw, &ra); err != nil {
			n.drop("account", i, err)
			continue
		}
		a, err := Account(ra)
		if err != nil {
			n.drop("account", i, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// Reports normalizes a raw report list, preserving arrival order.
func (n *Normalizer) Reports(list gateway.RawList) []models.Report {
	out := make([]models.Report, 0, len(list))
	for i, raw := range list {
		r, err := n.ReportJSON(raw)
		if err != nil {
			n.drop("report", i, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// ReportJSON normalizes a single encoded report.
func (n *Normalizer) ReportJSON(raw json.RawMessage) (models.Report, error) {
	var rr gateway.RawReport
	if err := json.Unmarshal(raw, &rr); err != nil {
		return models.Report{}, err
	}
	return n.Report(rr)
}

func (n *Normalizer) drop(kind string, index int, err error) {
	n.logger().Debug("dropping malformed record",
		zap.String("kind", kind),
		zap.Int("index", index),
		zap.Error(err))
}

// Account validates and canonicalizes one raw account. Unknown role labels
// are kept (upper-cased) so the account still lists.
func Account(ra gateway.RawAccount) (models.Account, error) {
	if !ra.ID.Present() {
		return models.Account{}, errMissingID
	}
	email := ""
	if ra.Email != nil {
		email = Email(*ra.Email)
	}
	if email == "" {
		return models.Account{}, errMissingEmail
	}
	role := ""
	if ra.Role != nil {
		role = Role(*ra.Role)
	}
	return models.Account{ID: ra.ID.String(), Email: email, Role: models.Role(role)}, nil
}

// Report validates and canonicalizes one raw report. The author reference is
// taken from authorId, then userId, then the nested author or user object,
// and is cleared when the report is anonymous.
func (n *Normalizer) Report(rr gateway.RawReport) (models.Report, error) {
	if !rr.ID.Present() {
		return models.Report{}, errMissingID
	}
	msg := ""
	if rr.Message != nil {
		msg = Message(*rr.Message)
	}
	if msg == "" {
		return models.Report{}, errMissingMessage
	}
	if rr.CreatedAt == nil || strings.TrimSpace(*rr.CreatedAt) == "" {
		return models.Report{}, errMissingCreatedAt
	}
	created, err := ParseTimestamp(*rr.CreatedAt, n.location())
	if err != nil {
		return models.Report{}, err
	}

	anonymous := rr.Anonymous != nil && *rr.Anonymous
	author := ""
	if !anonymous {
		author = authorRef(rr)
	}

	return models.Report{
		ID:        rr.ID.String(),
		Message:   msg,
		CreatedAt: created,
		Anonymous: anonymous,
		AuthorID:  author,
	}, nil
}

func authorRef(rr gateway.RawReport) string {
	switch {
	case rr.AuthorID.Present():
		return rr.AuthorID.String()
	case rr.UserID.Present():
		return rr.UserID.String()
	case rr.Author != nil && rr.Author.ID.Present():
		return rr.Author.ID.String()
	case rr.User != nil && rr.User.ID.Present():
		return rr.User.ID.String()
	}
	return ""
}

// ParseTimestamp reads an RFC 3339 timestamp, or a zone-less date-time or
// date in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadCreatedAt
}
