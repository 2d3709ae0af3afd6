package cron

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/sanketnighot/hookified/pkg/types"
)

const defaultSetupCacheTTL = 5 * time.Minute

// SetupCheck is one prerequisite probe: what was checked, whether it
// passed, and how to fix it. Operators must be able to tell which of
// several independent prerequisites is unmet.
type SetupCheck struct {
	Name        string `json:"name"`
	OK          bool   `json:"ok"`
	Detail      string `json:"detail,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

// SetupReport is the itemized diagnostic for the scheduler prerequisites.
type SetupReport struct {
	Ready     bool         `json:"ready"`
	Passed    int          `json:"passed"`
	Failed    int          `json:"failed"`
	Checks    []SetupCheck `json:"checks"`
	CheckedAt time.Time    `json:"checked_at"`
}

// SetupValidator probes scheduler prerequisites and caches the result.
// The cache is explicit state with an injected clock and explicit
// invalidation, owned by the gateway's dependency root.
type SetupValidator struct {
	db      *sql.DB
	cfg     types.CronConfig
	baseURL string
	ttl     time.Duration
	clock   func() time.Time

	mu        sync.Mutex
	cached    *SetupReport
	expiresAt time.Time
}

func NewSetupValidator(db *sql.DB, cfg types.CronConfig, baseURL string) *SetupValidator {
	ttl := cfg.SetupCacheTTL
	if ttl <= 0 {
		ttl = defaultSetupCacheTTL
	}
	return &SetupValidator{
		db:      db,
		cfg:     cfg,
		baseURL: baseURL,
		ttl:     ttl,
		clock:   time.Now,
	}
}

// WithClock overrides the clock, for deterministic staleness tests.
func (v *SetupValidator) WithClock(clock func() time.Time) *SetupValidator {
	v.clock = clock
	return v
}

// Invalidate drops the cached report.
func (v *SetupValidator) Invalidate() {
	v.mu.Lock()
	v.cached = nil
	v.mu.Unlock()
}

// Validate returns the prerequisite report, served from cache within TTL.
func (v *SetupValidator) Validate(ctx context.Context) *SetupReport {
	now := v.clock()

	v.mu.Lock()
	if v.cached != nil && now.Before(v.expiresAt) {
		report := v.cached
		v.mu.Unlock()
		return report
	}
	v.mu.Unlock()

	report := v.probe(ctx, now)

	v.mu.Lock()
	v.cached = report
	v.expiresAt = now.Add(v.ttl)
	v.mu.Unlock()
	return report
}

func (v *SetupValidator) probe(ctx context.Context, now time.Time) *SetupReport {
	checks := []SetupCheck{
		v.checkSecret(),
		v.checkBaseURL(),
		v.checkExtension(ctx, "pg_cron", "run CREATE EXTENSION pg_cron and grant usage on schema cron"),
		v.checkExtension(ctx, "pg_net", "run CREATE EXTENSION pg_net so scheduled jobs can call the execution endpoint"),
		v.checkHTTPBridge(ctx),
	}

	report := &SetupReport{Checks: checks, CheckedAt: now}
	for _, c := range checks {
		if c.OK {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Ready = report.Failed == 0
	return report
}

func (v *SetupValidator) checkSecret() SetupCheck {
	check := SetupCheck{Name: "cron_secret"}
	if v.cfg.Secret == "" {
		check.Detail = "execution endpoint shared secret is not configured"
		check.Remediation = "set cron.secret (HOOKIFIED_CRON_SECRET) to a random value"
		return check
	}
	check.OK = true
	return check
}

func (v *SetupValidator) checkBaseURL() SetupCheck {
	check := SetupCheck{Name: "public_base_url"}
	if v.baseURL == "" {
		check.Detail = "public base URL is not configured, scheduled jobs cannot reach the gateway"
		check.Remediation = "set gateway.publicBaseUrl (HOOKIFIED_GATEWAY_PUBLICBASEURL)"
		return check
	}
	check.OK = true
	return check
}

func (v *SetupValidator) checkExtension(ctx context.Context, name, remediation string) SetupCheck {
	check := SetupCheck{Name: "extension_" + name, Remediation: remediation}
	if v.db == nil {
		check.Detail = "database is not connected"
		return check
	}
	var exists bool
	err := v.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = $1)`, name).Scan(&exists)
	if err != nil {
		check.Detail = "extension probe failed: " + err.Error()
		return check
	}
	if !exists {
		check.Detail = "extension " + name + " is not installed"
		return check
	}
	check.OK = true
	check.Remediation = ""
	return check
}

func (v *SetupValidator) checkHTTPBridge(ctx context.Context) SetupCheck {
	check := SetupCheck{
		Name:        "net_http_post",
		Remediation: "install pg_net; the net.http_post function is how scheduler jobs call back into the gateway",
	}
	if v.db == nil {
		check.Detail = "database is not connected"
		return check
	}
	var exists bool
	err := v.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM pg_proc p
			JOIN pg_namespace n ON n.oid = p.pronamespace
			WHERE n.nspname = 'net' AND p.proname = 'http_post'
		)`).Scan(&exists)
	if err != nil {
		check.Detail = "bridge probe failed: " + err.Error()
		return check
	}
	if !exists {
		check.Detail = "net.http_post is not callable"
		return check
	}
	check.OK = true
	check.Remediation = ""
	return check
}
