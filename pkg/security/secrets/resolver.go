package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/quotegate/pkg/config"
)

// refPattern matches ${secret:name} references.
var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver tries its providers in order and expands secret references.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver creates a resolver over providers, tried in order.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		logger:    slog.Default().With("component", "security.secrets"),
	}
}

// NewFromConfig builds the resolver described by cfg: the secrets
// directory first when configured, then the environment.
func NewFromConfig(cfg config.SecretsConfig) (*Resolver, error) {
	var providers []Provider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))
	return NewResolver(providers...), nil
}

// Get returns the value from the first provider holding name. A provider
// failure other than ErrNotFound stops the search.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	for _, p := range r.providers {
		value, err := p.Lookup(ctx, name)
		if err == nil {
			r.logger.DebugContext(ctx, "secret resolved", "name", name, "provider", p.Name())
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%s provider: %w", p.Name(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Expand replaces every ${secret:name} in s. References that cannot be
// resolved are left in place and reported together in the error.
func (r *Resolver) Expand(ctx context.Context, s string) (string, error) {
	var failed []string
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.TrimSpace(refPattern.FindStringSubmatch(ref)[1])
		value, err := r.Get(ctx, name)
		if err != nil {
			failed = append(failed, err.Error())
			return ref
		}
		return value
	})
	if len(failed) > 0 {
		return out, fmt.Errorf("failed to resolve secret references: %s", strings.Join(failed, "; "))
	}
	return out, nil
}

// ResolveSheets expands the secret references in the credential fields of
// the Sheets engine settings in place.
func (r *Resolver) ResolveSheets(ctx context.Context, cfg *config.SheetsConfig) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"engine.sheets.spreadsheet_id", &cfg.SpreadsheetID},
		{"engine.sheets.credentials_json", &cfg.CredentialsJSON},
		{"engine.sheets.credentials_file", &cfg.CredentialsFile},
	}
	for _, f := range fields {
		if !refPattern.MatchString(*f.value) {
			continue
		}
		resolved, err := r.Expand(ctx, *f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = resolved
	}
	return nil
}
