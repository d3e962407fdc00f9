package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/internal/recordid"
	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

// Report summarises one migration run.
type Report struct {
	// Fields lists the fields that were scanned.
	Fields []string `json:"fields"`
	// Scanned counts the non-empty stored values inspected.
	Scanned int `json:"scanned"`
	// Rewritten counts the values written back.
	Rewritten int `json:"rewritten"`
	// Records lists the records that had at least one value rewritten, in
	// natural record order.
	Records []string `json:"records"`
}

// Changed reports whether the run wrote anything.
func (r Report) Changed() bool { return r.Rewritten > 0 }

// Option configures a Migrator.
type Option func(*Migrator)

// WithSeparators overrides the legacy and current separators.
func WithSeparators(seps resolve.Separators) Option {
	return func(m *Migrator) {
		if seps.Current != "" {
			m.seps.Current = seps.Current
		}
		if seps.Legacy != "" {
			m.seps.Legacy = seps.Legacy
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEnabled switches migration on or off. A disabled migrator returns an
// empty report without touching the store.
func WithEnabled(enabled bool) Option {
	return func(m *Migrator) {
		m.enabled = enabled
	}
}

// Migrator rewrites composite values stored with the legacy separator.
type Migrator struct {
	store   project.Store
	seps    resolve.Separators
	logger  *zap.Logger
	enabled bool
}

// New constructs a migrator over store.
func New(store project.Store, options ...Option) (*Migrator, error) {
	if store == nil {
		return nil, errors.New("migrate: store is required")
	}
	m := &Migrator{
		store:   store,
		seps:    resolve.DefaultSeparators(),
		logger:  zap.NewNop(),
		enabled: true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.seps.Current == m.seps.Legacy {
		return nil, fmt.Errorf("migrate: current and legacy separators are both %q", m.seps.Current)
	}
	return m, nil
}

// Enabled reports whether Migrate touches the store.
func (m *Migrator) Enabled() bool { return m.enabled }

// Rewrite converts one stored value. The value is split on the first legacy
// separator only, so a base value (record id) that itself contains the legacy
// character survives. Values whose qualifier is already followed by the
// current separator are left alone, which keeps repeated runs from touching
// migrated data.
func (m *Migrator) Rewrite(value string) (string, bool) {
	legacy := strings.Index(value, m.seps.Legacy)
	if legacy < 0 {
		return value, false
	}
	if current := strings.Index(value, m.seps.Current); current >= 0 && current < legacy {
		return value, false
	}
	return value[:legacy] + m.seps.Current + value[legacy+len(m.seps.Legacy):], true
}

// Plan computes the rewrites Migrate would apply without writing them. The
// report's Rewritten counts the planned changes.
func (m *Migrator) Plan(ctx context.Context, fields []string) (Report, []project.Value, error) {
	report := Report{Fields: dedupe(fields)}
	if len(report.Fields) == 0 {
		return report, nil, nil
	}

	values, err := m.store.Read(ctx, project.Query{Fields: report.Fields})
	if err != nil {
		return report, nil, fmt.Errorf("migrate: read values: %w", err)
	}

	var changed []project.Value
	touched := make(map[string]struct{})
	for _, value := range values {
		if value.Value == "" {
			continue
		}
		report.Scanned++
		rewritten, ok := m.Rewrite(value.Value)
		if !ok {
			continue
		}
		value.Value = rewritten
		changed = append(changed, value)
		if _, seen := touched[value.Record]; !seen {
			touched[value.Record] = struct{}{}
			report.Records = append(report.Records, value.Record)
		}
	}
	recordid.Sort(report.Records)
	report.Rewritten = len(changed)
	return report, changed, nil
}

// Migrate scans every record's values for fields and writes back, in a single
// bulk call, only the values that changed.
func (m *Migrator) Migrate(ctx context.Context, fields []string) (Report, error) {
	if !m.enabled {
		return Report{Fields: dedupe(fields)}, nil
	}

	report, changed, err := m.Plan(ctx, fields)
	if err != nil {
		return report, err
	}
	if len(changed) == 0 {
		m.logger.Debug("no legacy values found",
			zap.Strings("fields", report.Fields),
			zap.Int("scanned", report.Scanned),
		)
		return report, nil
	}

	if err := m.store.Write(ctx, changed); err != nil {
		report.Rewritten = 0
		return report, fmt.Errorf("migrate: write values: %w", err)
	}
	m.logger.Info("legacy values migrated",
		zap.Strings("fields", report.Fields),
		zap.Int("rewritten", report.Rewritten),
		zap.Strings("records", report.Records),
	)
	return report, nil
}

func dedupe(fields []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}
