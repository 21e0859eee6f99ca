// Package repository wraps table scoped CRUD calls against the backend and
// maps rows into typed records.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portfolio-site/internal/backend"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/models"
)

const (
	ProjectsTable = "projects"
	SkillsTable   = "skills"

	idColumn = "id"
)

type validator interface {
	Validate() error
}

// Repository is bound to one table client, so one value serves one caller
// identity (anonymous or a signed in user).
type Repository[T any, F any] struct {
	table backend.Table
	name  string
	order backend.Order
	now   func() time.Time
}

type (
	ProjectRepository = Repository[models.Project, models.ProjectFields]
	SkillRepository   = Repository[models.Skill, models.SkillFields]
)

func New[T any, F any](table backend.Table, name string, order backend.Order) *Repository[T, F] {
	return &Repository[T, F]{
		table: table,
		name:  name,
		order: order,
		now:   time.Now,
	}
}

// NewProjects lists projects newest first.
func NewProjects(tables backend.Tables, accessToken string) *ProjectRepository {
	return New[models.Project, models.ProjectFields](
		tables.Table(ProjectsTable, accessToken),
		ProjectsTable,
		backend.Order{Column: "created_at", Ascending: false},
	)
}

// NewSkills lists skills alphabetically.
func NewSkills(tables backend.Tables, accessToken string) *SkillRepository {
	return New[models.Skill, models.SkillFields](
		tables.Table(SkillsTable, accessToken),
		SkillsTable,
		backend.Order{Column: "name", Ascending: true},
	)
}

// WithClock replaces the clock used for updated_at.
func (r *Repository[T, F]) WithClock(now func() time.Time) *Repository[T, F] {
	r.now = now
	return r
}

// ListAll returns every row in the repository's fixed order. The result is
// never nil.
func (r *Repository[T, F]) ListAll(ctx context.Context) ([]T, error) {
	data, err := r.table.Select(ctx, "*", r.order)
	if err != nil {
		return nil, errs.NewFetchError(r.name, err)
	}
	records := make([]T, 0)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errs.NewFetchError(r.name, fmt.Errorf("failed to decode rows: %w", err))
	}
	if records == nil {
		records = make([]T, 0)
	}
	return records, nil
}

// Create inserts a new row. Identifier and timestamps come from the backend.
func (r *Repository[T, F]) Create(ctx context.Context, fields F) error {
	if err := validate(fields); err != nil {
		return errs.NewWriteError("create", r.name, "", err)
	}
	if _, err := r.table.Insert(ctx, fields); err != nil {
		return errs.NewWriteError("create", r.name, "", err)
	}
	return nil
}

// Update replaces every caller supplied column of row id and refreshes
// updated_at. An id that matches no row is reported as errs.ErrNotFound.
func (r *Repository[T, F]) Update(ctx context.Context, id string, fields F) error {
	if id == "" {
		return errs.NewWriteError("update", r.name, id, errs.NewValidationError("id", "id is required"))
	}
	if err := validate(fields); err != nil {
		return errs.NewWriteError("update", r.name, id, err)
	}
	row, err := updateRow(fields, r.now())
	if err != nil {
		return errs.NewWriteError("update", r.name, id, err)
	}

	data, err := r.table.Update(ctx, row, idColumn, id)
	if err != nil {
		return errs.NewWriteError("update", r.name, id, err)
	}
	var updated []json.RawMessage
	if err := json.Unmarshal(data, &updated); err != nil {
		return errs.NewWriteError("update", r.name, id, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(updated) == 0 {
		return errs.NewWriteError("update", r.name, id, errs.ErrNotFound)
	}
	return nil
}

// Delete removes row id. Deleting an id that no longer exists succeeds.
func (r *Repository[T, F]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errs.NewWriteError("delete", r.name, id, errs.NewValidationError("id", "id is required"))
	}
	if _, err := r.table.Delete(ctx, idColumn, id); err != nil {
		return errs.NewWriteError("delete", r.name, id, err)
	}
	return nil
}

func validate(fields interface{}) error {
	if v, ok := fields.(validator); ok {
		return v.Validate()
	}
	return nil
}

func updateRow(fields interface{}, now time.Time) (map[string]interface{}, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	row := make(map[string]interface{})
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	row["updated_at"] = now.UTC().Format(time.RFC3339Nano)
	return row, nil
}
