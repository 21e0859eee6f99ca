package database

import (
	"context"
	"fmt"
	"strings"
)

// Access is the administrator allow list and image bucket the database
// policies enforce.
type Access struct {
	AdminEmails []string
	AdminRole   string
	ImageBucket string
}

type adminRule struct {
	Kind  string
	Value string
}

// rules lists the portfolio_admins rows for a, without blanks or duplicates.
func (a Access) rules() []adminRule {
	seen := make(map[adminRule]bool)
	var out []adminRule
	add := func(kind, value string) {
		value = strings.TrimSpace(value)
		r := adminRule{Kind: kind, Value: value}
		if value == "" || seen[r] {
			return
		}
		seen[r] = true
		out = append(out, r)
	}
	for _, email := range a.AdminEmails {
		add("email", email)
	}
	add("role", a.AdminRole)
	return out
}

// Sync rewrites the allow list and image bucket the policies read, in one
// transaction. It runs after Run on every start so the policies follow the
// configuration.
func (m *Migrator) Sync(ctx context.Context, access Access) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM public.portfolio_admins"); err != nil {
		return fmt.Errorf("failed to clear admin allow list: %w", err)
	}
	for _, rule := range access.rules() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO public.portfolio_admins (kind, value) VALUES ($1, $2)",
			rule.Kind, rule.Value,
		); err != nil {
			return fmt.Errorf("failed to store admin %s %q: %w", rule.Kind, rule.Value, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM public.portfolio_image_buckets"); err != nil {
		return fmt.Errorf("failed to clear image buckets: %w", err)
	}
	if access.ImageBucket != "" {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO storage.buckets (id, name, public) VALUES ($1, $1, true) ON CONFLICT (id) DO NOTHING",
			access.ImageBucket,
		); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", access.ImageBucket, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO public.portfolio_image_buckets (name) VALUES ($1)",
			access.ImageBucket,
		); err != nil {
			return fmt.Errorf("failed to register bucket %s: %w", access.ImageBucket, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit access sync: %w", err)
	}
	m.logger.Info().
		Int("admins", len(access.rules())).
		Str("bucket", access.ImageBucket).
		Msg("database access synced")
	return nil
}
