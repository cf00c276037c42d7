package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Environment fallbacks for the global flags.
const (
	envGateway  = "PANELCTL_GATEWAY"
	envToken    = "PANELCTL_TOKEN"
	envAs       = "PANELCTL_AS"
	envTimezone = "PANELCTL_TIMEZONE"
	envVerbose  = "PANELCTL_VERBOSE"
)

// options are the global flags shared by every command.
type options struct {
	gateway  string
	token    string
	as       string
	timezone string
	timeout  time.Duration
	verbose  bool

	logger *zap.Logger
	loc    *time.Location
	client *gateway.Client
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "panelctl",
		Short: "Terminal client for the chaos panel",
		Long: `panelctl lists, filters and changes reports and accounts on the remote
accounts/reports service.

Global flags fall back to PANELCTL_GATEWAY, PANELCTL_TOKEN, PANELCTL_AS and
PANELCTL_TIMEZONE. Get a token with "panelctl login".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.gateway, "gateway", envOr(envGateway, "http://localhost:8080"), "base URL of the accounts/reports service")
	pf.StringVar(&opts.token, "token", envOr(envToken, ""), "bearer token from the service")
	pf.StringVar(&opts.as, "as", envOr(envAs, ""), "acting account id (default: the token's id claim)")
	pf.StringVar(&opts.timezone, "timezone", envOr(envTimezone, "UTC"), "time zone for dates")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall timeout per command")
	pf.BoolVarP(&opts.verbose, "verbose", "v", os.Getenv(envVerbose) != "", "log gateway calls to stderr")

	root.AddCommand(
		newLoginCmd(opts),
		newReportsCmd(opts),
		newAccountsCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

func (o *options) setup() error {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	o.loc = loc

	o.logger = zap.NewNop()
	if o.verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if o.logger, err = cfg.Build(); err != nil {
			return err
		}
	}

	o.client, err = gateway.New(gateway.Options{BaseURL: o.gateway, Logger: o.logger})
	return err
}

// actor builds the identity commands act as. The role and id come from the
// token's claims; --as overrides the id.
func (o *options) actor() (projection.Actor, error) {
	if o.token == "" {
		return projection.Actor{}, errors.New("no token: pass --token or set " + envToken)
	}
	claims, err := auth.ParseClaims(o.token)
	if err != nil {
		return projection.Actor{}, err
	}
	if !claims.ExpiresAt.IsZero() && time.Now().After(claims.ExpiresAt) {
		return projection.Actor{}, errors.New("token expired: run panelctl login again")
	}
	role, _ := models.ParseRole(claims.Role)
	id := claims.AccountID
	if o.as != "" {
		id = normalize.ID(o.as)
	}
	return projection.Actor{Credential: o.token, ID: id, Tier: role}, nil
}

// engine returns a loaded engine for the acting identity.
func (o *options) engine(ctx context.Context) (*projection.Engine, projection.Actor, error) {
	actor, err := o.actor()
	if err != nil {
		return nil, actor, err
	}
	eng := projection.NewEngine(o.client, actor, projection.Options{
		Normalizer: normalize.New(o.loc, o.logger),
		Logger:     o.logger,
	})
	if err := eng.Reload(ctx); err != nil {
		return nil, actor, explain(err)
	}
	return eng, actor, nil
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// explain turns engine errors into the same notices the web panel shows.
func explain(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s (%w)", projection.Notice(err), err)
}
