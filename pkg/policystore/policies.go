package policystore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/relaydev/execcore/pkg/sandbox"
)

// PolicyRecord is a named sandbox policy persisted across invocations.
type PolicyRecord struct {
	Name            string
	Level           sandbox.Level
	Workspace       string
	RequireApproval bool
	AllowNetwork    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SavePolicy inserts or replaces the named policy.
func (s *Store) SavePolicy(p *PolicyRecord) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	now := time.Now().UTC()
	existing, err := s.GetPolicy(p.Name)
	if err != nil {
		return err
	}
	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	_, err = s.db.Exec(`
		INSERT INTO sandbox_policies (name, level, workspace, require_approval, allow_network, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			level = excluded.level,
			workspace = excluded.workspace,
			require_approval = excluded.require_approval,
			allow_network = excluded.allow_network,
			updated_at = excluded.updated_at
	`, p.Name, p.Level.String(), p.Workspace, p.RequireApproval, p.AllowNetwork, createdAt, now)
	if err != nil {
		return fmt.Errorf("policystore: save policy %q: %w", p.Name, err)
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = now
	return nil
}

// GetPolicy returns the named policy, or nil if it does not exist.
func (s *Store) GetPolicy(name string) (*PolicyRecord, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	row := s.db.QueryRow(`
		SELECT name, level, workspace, require_approval, allow_network, created_at, updated_at
		FROM sandbox_policies WHERE name = ?
	`, name)
	return scanPolicy(row)
}

func scanPolicy(row *sql.Row) (*PolicyRecord, error) {
	var p PolicyRecord
	var level string
	if err := row.Scan(&p.Name, &level, &p.Workspace, &p.RequireApproval, &p.AllowNetwork, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("policystore: get policy: %w", err)
	}
	parsed, err := sandbox.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("policystore: stored policy has invalid level %q: %w", level, err)
	}
	p.Level = parsed
	return &p, nil
}

// ListPolicies returns every saved policy ordered by name.
func (s *Store) ListPolicies() ([]*PolicyRecord, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(`
		SELECT name, level, workspace, require_approval, allow_network, created_at, updated_at
		FROM sandbox_policies ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("policystore: list policies: %w", err)
	}
	defer rows.Close()

	var policies []*PolicyRecord
	for rows.Next() {
		var p PolicyRecord
		var level string
		if err := rows.Scan(&p.Name, &level, &p.Workspace, &p.RequireApproval, &p.AllowNetwork, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("policystore: scan policy: %w", err)
		}
		parsed, err := sandbox.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("policystore: stored policy has invalid level %q: %w", level, err)
		}
		p.Level = parsed
		policies = append(policies, &p)
	}
	return policies, rows.Err()
}

// DeletePolicy removes the named policy. It is not an error to delete a
// policy that does not exist.
func (s *Store) DeletePolicy(name string) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`DELETE FROM sandbox_policies WHERE name = ?`, name); err != nil {
		return fmt.Errorf("policystore: delete policy %q: %w", name, err)
	}
	return nil
}
