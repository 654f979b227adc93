package policystore

import (
	"database/sql"
	"fmt"
	"time"
)

// ApprovalStatus mirrors pkg/approval's resolution states, plus "pending"
// for a request that has not yet been resolved by a later invocation.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusDenied   ApprovalStatus = "denied"
	StatusExpired  ApprovalStatus = "expired"
)

// PendingApproval is a command awaiting a human decision across process
// invocations: one `execcore run` call creates it when the approval
// manager is non-interactive, and a later `execcore approve` call
// resolves it.
type PendingApproval struct {
	ID             string
	ExecutionID    string
	CommandName    string
	CommandArgs    string // JSON, re-dispatched verbatim on approval
	Workspace      string
	Description    string
	RiskLevel      string
	Status         ApprovalStatus
	DecidedBy      string
	DecidedAt      time.Time
	DecisionReason string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// CreatePendingApproval records a new approval request.
func (s *Store) CreatePendingApproval(a *PendingApproval) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.CommandArgs == "" {
		a.CommandArgs = "{}"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO pending_approvals (id, execution_id, command_name, command_args, workspace, description, risk_level, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ExecutionID, a.CommandName, a.CommandArgs, a.Workspace, a.Description, a.RiskLevel, string(a.Status), a.ExpiresAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("policystore: create pending approval %q: %w", a.ID, err)
	}
	return nil
}

func scanPendingApproval(scan func(dest ...any) error) (*PendingApproval, error) {
	var a PendingApproval
	var status string
	var decidedBy, decisionReason sql.NullString
	var decidedAt sql.NullTime
	if err := scan(&a.ID, &a.ExecutionID, &a.CommandName, &a.CommandArgs, &a.Workspace, &a.Description, &a.RiskLevel,
		&status, &decidedBy, &decidedAt, &decisionReason, &a.ExpiresAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = ApprovalStatus(status)
	if decidedBy.Valid {
		a.DecidedBy = decidedBy.String
	}
	if decidedAt.Valid {
		a.DecidedAt = decidedAt.Time
	}
	if decisionReason.Valid {
		a.DecisionReason = decisionReason.String
	}
	return &a, nil
}

const pendingApprovalColumns = `
	id, execution_id, command_name, command_args, workspace, description, risk_level,
	status, decided_by, decided_at, decision_reason, expires_at, created_at
`

// GetPendingApproval returns the request by id, or nil if it does not exist.
func (s *Store) GetPendingApproval(id string) (*PendingApproval, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	row := s.db.QueryRow(`SELECT `+pendingApprovalColumns+` FROM pending_approvals WHERE id = ?`, id)
	a, err := scanPendingApproval(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("policystore: get pending approval %q: %w", id, err)
	}
	return a, nil
}

// ResolvePendingApproval marks id decided.
func (s *Store) ResolvePendingApproval(id string, status ApprovalStatus, decidedBy, reason string) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	_, err := s.db.Exec(`
		UPDATE pending_approvals
		SET status = ?, decided_by = ?, decided_at = ?, decision_reason = ?
		WHERE id = ?
	`, string(status), decidedBy, time.Now().UTC(), reason, id)
	if err != nil {
		return fmt.Errorf("policystore: resolve pending approval %q: %w", id, err)
	}
	return nil
}

// ListPendingApprovals returns every request currently in StatusPending,
// ordered oldest first.
func (s *Store) ListPendingApprovals() ([]*PendingApproval, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(`
		SELECT `+pendingApprovalColumns+`
		FROM pending_approvals WHERE status = ? ORDER BY created_at ASC
	`, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("policystore: list pending approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*PendingApproval
	for rows.Next() {
		a, err := scanPendingApproval(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("policystore: scan pending approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// ExpirePendingApprovals marks every pending request whose deadline has
// passed as StatusExpired, returning the count affected.
func (s *Store) ExpirePendingApprovals() (int, error) {
	if s.db == nil {
		return 0, ErrStoreClosed
	}
	now := time.Now().UTC()
	result, err := s.db.Exec(`
		UPDATE pending_approvals
		SET status = ?, decided_at = ?, decision_reason = 'timeout'
		WHERE status = ? AND expires_at < ?
	`, string(StatusExpired), now, string(StatusPending), now)
	if err != nil {
		return 0, fmt.Errorf("policystore: expire pending approvals: %w", err)
	}
	count, _ := result.RowsAffected()
	return int(count), nil
}
