package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rlm-project/rlm/internal/rlmerr"
)

func (s *Store) table(scope VariableScope) string {
	if scope == ScopeGlobal {
		return "globals"
	}
	return "variables"
}

// SetVariable upserts name=value in the given scope.
func (s *Store) SetVariable(ctx context.Context, scope VariableScope, name, value string, valueType ValueType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowUnix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.table(scope)+`(name, value, value_type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, value_type = excluded.value_type, updated_at = excluded.updated_at`,
		name, value, string(valueType), now, now)
	if err != nil {
		return wrapErr(rlmerr.KindGeneric, "set variable", err)
	}
	return nil
}

// GetVariable reads name from the given scope.
func (s *Store) GetVariable(ctx context.Context, scope VariableScope, name string) (*Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT name, value, value_type, created_at, updated_at FROM `+s.table(scope)+` WHERE name = ?`, name)
	var v Variable
	var vt string
	var created, updated int64
	if err := row.Scan(&v.Name, &v.Value, &vt, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, rlmerr.New(rlmerr.KindGeneric, "variable not found: "+name)
		}
		return nil, wrapErr(rlmerr.KindGeneric, "get variable", err)
	}
	v.ValueType = ValueType(vt)
	v.CreatedAt = time.Unix(created, 0)
	v.UpdatedAt = time.Unix(updated, 0)
	return &v, nil
}

// DeleteVariable removes name from the given scope.
func (s *Store) DeleteVariable(ctx context.Context, scope VariableScope, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table(scope)+` WHERE name = ?`, name)
	if err != nil {
		return wrapErr(rlmerr.KindGeneric, "delete variable", err)
	}
	return nil
}

// ListVariables returns every entry in the given scope.
func (s *Store) ListVariables(ctx context.Context, scope VariableScope) ([]Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name, value, value_type, created_at, updated_at FROM `+s.table(scope)+` ORDER BY name`)
	if err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "list variables", err)
	}
	defer rows.Close()

	var out []Variable
	for rows.Next() {
		var v Variable
		var vt string
		var created, updated int64
		if err := rows.Scan(&v.Name, &v.Value, &vt, &created, &updated); err != nil {
			return nil, wrapErr(rlmerr.KindGeneric, "scan variable row", err)
		}
		v.ValueType = ValueType(vt)
		v.CreatedAt = time.Unix(created, 0)
		v.UpdatedAt = time.Unix(updated, 0)
		out = append(out, v)
	}
	return out, rows.Err()
}
