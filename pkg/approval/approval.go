// Package approval implements the risk classification and resolution policy
// gating every sandbox decision that comes back RequireApproval: it scores
// an operation's risk, then resolves Approved/Denied/Timeout according to
// the two-flag policy (auto_approve_low_risk, interactive).
package approval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// RiskLevel is the totally ordered severity of an operation awaiting
// approval.
type RiskLevel int

const (
	Low RiskLevel = iota
	Medium
	High
	Critical
)

func (r RiskLevel) String() string {
	switch r {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Max returns the more severe of r and other, used to aggregate risk across
// a command's full set of preview actions.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other > r {
		return other
	}
	return r
}

// ApprovalStatus is the outcome of resolving an ApprovalRequest.
type ApprovalStatus int

const (
	Approved ApprovalStatus = iota
	Denied
	Timeout
)

func (s ApprovalStatus) String() string {
	switch s {
	case Approved:
		return "approved"
	case Denied:
		return "denied"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ApprovalRequest describes an operation awaiting a resolution decision.
type ApprovalRequest struct {
	Operation   string
	Description string
	RiskLevel   RiskLevel
	Details     []string
}

// Backend prompts an interactive operator (CLI, TUI, or any other front
// end) for a yes/no decision on req. It is consulted only when the Manager
// is configured as interactive and the request was not auto-approved.
type Backend interface {
	Prompt(ctx context.Context, req ApprovalRequest) (bool, error)
}

// Manager resolves ApprovalRequests according to the execution core's
// two-flag policy: low-risk requests are approved automatically when
// autoApproveLowRisk is set, and everything else is denied unless the
// manager is interactive and a Backend is wired in to ask a human.
type Manager struct {
	autoApproveLowRisk bool
	interactive        bool
	backend            Backend
}

// NewManager constructs a Manager with the given resolution policy flags.
func NewManager(autoApproveLowRisk, interactive bool) *Manager {
	return &Manager{autoApproveLowRisk: autoApproveLowRisk, interactive: interactive}
}

// SetBackend wires an interactive prompt backend. A Manager configured as
// interactive with no backend set behaves as if non-interactive.
func (m *Manager) SetBackend(b Backend) { m.backend = b }

// RequestApproval resolves req to a final ApprovalStatus.
func (m *Manager) RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalStatus, error) {
	if m.autoApproveLowRisk && req.RiskLevel == Low {
		return Approved, nil
	}
	if !m.interactive || m.backend == nil {
		return Denied, nil
	}
	approved, err := m.backend.Prompt(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Timeout, err
		}
		return Denied, err
	}
	if approved {
		return Approved, nil
	}
	return Denied, nil
}

// RiskSource is anything a preview action can expose to contribute to a
// command's aggregate risk score. pkg/command's PreviewAction variants
// implement this.
type RiskSource interface {
	ApprovalRisk() RiskLevel
}

// AggregateRisk folds a command preview's actions down to the single
// highest risk level among them. An empty slice is Low risk.
func AggregateRisk(sources []RiskSource) RiskLevel {
	risk := Low
	for _, s := range sources {
		risk = risk.Max(s.ApprovalRisk())
	}
	return risk
}

// CheckCommandApproval resolves the approval decision for a whole command
// preview: it aggregates risk across sources, and if the command's sandbox
// check did not require approval at all, it is approved without consulting
// the resolution policy.
func CheckCommandApproval(ctx context.Context, sources []RiskSource, requiresApproval bool, manager *Manager) (ApprovalStatus, error) {
	if !requiresApproval {
		return Approved, nil
	}
	risk := AggregateRisk(sources)
	req := ApprovalRequest{
		Operation:   "command",
		Description: "command preview requires approval",
		RiskLevel:   risk,
	}
	return manager.RequestApproval(ctx, req)
}

var (
	criticalCommandPatterns = []*regexp.Regexp{
		regexp.MustCompile(`rm\s+(-\w*\s+)*-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*\s+/(\s|$)`),
		regexp.MustCompile(`rm\s+(-\w*\s+)*-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*\s+/(\s|$)`),
		regexp.MustCompile(`dd\s+.*if=/`),
		regexp.MustCompile(`\bformat\b`),
		regexp.MustCompile(`\bshutdown\b`),
		regexp.MustCompile(`\breboot\b`),
		regexp.MustCompile(`\bmkfs\b`),
	}
	highCommandPatterns = []*regexp.Regexp{
		regexp.MustCompile(`sudo\s+chmod\s+.*\s+/etc`),
		regexp.MustCompile(`\bmount\b`),
		regexp.MustCompile(`crontab\s+-e`),
	}
	mediumCommandPatterns = []*regexp.Regexp{
		regexp.MustCompile(`curl[^|]*\|\s*(sudo\s+)?(ba)?sh\b`),
		regexp.MustCompile(`wget[^|]*\|\s*(sudo\s+)?(ba)?sh\b`),
		regexp.MustCompile(`\bnpm\s+install\b`),
		regexp.MustCompile(`\bpip\d?\s+install\b`),
	}
)

// ClassifyShellCommand scores a shell command string by the fixed
// classification rules: critical for destructive/system-altering commands,
// high for privileged configuration changes, medium for package installs
// and pipe-to-shell patterns, low for everything else.
func ClassifyShellCommand(command string) RiskLevel {
	for _, re := range criticalCommandPatterns {
		if re.MatchString(command) {
			return Critical
		}
	}
	for _, re := range highCommandPatterns {
		if re.MatchString(command) {
			return High
		}
	}
	for _, re := range mediumCommandPatterns {
		if re.MatchString(command) {
			return Medium
		}
	}
	return Low
}

// CreateShellCommandApproval builds the ApprovalRequest for a shell command
// preview action.
func CreateShellCommandApproval(command string) ApprovalRequest {
	return ApprovalRequest{
		Operation:   "execute_shell",
		Description: fmt.Sprintf("Execute shell command: %s", command),
		RiskLevel:   ClassifyShellCommand(command),
		Details:     []string{command},
	}
}

// CreateFileWriteApproval builds the ApprovalRequest for a file write
// action. A write to a path that does not already exist is Low risk;
// overwriting an existing file is Medium risk.
func CreateFileWriteApproval(path string, overwritesExisting bool) ApprovalRequest {
	risk := Low
	desc := fmt.Sprintf("Create file: %s", path)
	if overwritesExisting {
		risk = Medium
		desc = fmt.Sprintf("Overwrite existing file: %s", path)
	}
	return ApprovalRequest{
		Operation:   "write_file",
		Description: desc,
		RiskLevel:   risk,
		Details:     []string{path},
	}
}

// CreateNetworkAccessApproval builds the ApprovalRequest for a network
// access action. HTTPS is Medium risk; plaintext HTTP is High risk since
// its traffic is unencrypted.
func CreateNetworkAccessApproval(rawURL string) ApprovalRequest {
	risk := High
	if u, err := url.Parse(rawURL); err == nil && strings.EqualFold(u.Scheme, "https") {
		risk = Medium
	}
	return ApprovalRequest{
		Operation:   "network_access",
		Description: fmt.Sprintf("Access network resource: %s", rawURL),
		RiskLevel:   risk,
		Details:     []string{rawURL},
	}
}

// ErrPreviewHashMismatch indicates a command's preview changed between the
// moment it was approved and the moment it was about to execute.
var ErrPreviewHashMismatch = errors.New("approval: preview hash changed since approval")

// VerifyPreviewHash confirms the hash of the preview about to be executed
// still matches the hash that was approved, guarding against
// time-of-check/time-of-use drift in the underlying filesystem.
func VerifyPreviewHash(approvedHash, currentHash string) error {
	if approvedHash != currentHash {
		return fmt.Errorf("%w: approved %s, now %s", ErrPreviewHashMismatch, approvedHash, currentHash)
	}
	return nil
}
