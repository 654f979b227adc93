package audit

// AuditEventData is the tagged-variant payload of an AuditEvent. Each
// concrete type names the moment it records; Kind returns that name as the
// discriminator used on the wire.
type AuditEventData interface {
	Kind() string
}

// Session lifecycle events.

type SessionStart struct{}

func (SessionStart) Kind() string { return "SessionStart" }

type SessionEnd struct {
	CommandCount int `json:"command_count"`
	ErrorCount   int `json:"error_count"`
}

func (SessionEnd) Kind() string { return "SessionEnd" }

type SessionPause struct{}

func (SessionPause) Kind() string { return "SessionPause" }

type SessionResume struct{}

func (SessionResume) Kind() string { return "SessionResume" }

// Command lifecycle events.

type CommandRequested struct {
	Name         string   `json:"name"`
	ArgsHash     string   `json:"args_hash"`
	Capabilities []string `json:"capabilities"`
	SandboxLevel string   `json:"sandbox_level"`
}

func (CommandRequested) Kind() string { return "CommandRequested" }

type CommandPreview struct {
	PreviewHash      string `json:"preview_hash"`
	ActionsCount     int    `json:"actions_count"`
	RequiresApproval bool   `json:"requires_approval"`
}

func (CommandPreview) Kind() string { return "CommandPreview" }

type CommandApproved struct{}

func (CommandApproved) Kind() string { return "CommandApproved" }

type CommandRejected struct {
	Reason string `json:"reason"`
}

func (CommandRejected) Kind() string { return "CommandRejected" }

type CommandStarted struct {
	ExecutionID string `json:"execution_id"`
}

func (CommandStarted) Kind() string { return "CommandStarted" }

type CommandCompleted struct {
	ExecutionID string `json:"execution_id"`
	Success     bool   `json:"success"`
	DurationMs  int64  `json:"duration_ms"`
	OutputSize  int    `json:"output_size"`
	Error       string `json:"error,omitempty"`
}

func (CommandCompleted) Kind() string { return "CommandCompleted" }

type CommandError struct {
	Message string `json:"message"`
}

func (CommandError) Kind() string { return "CommandError" }

// Policy events.

type PermissionCheck struct {
	Capability string `json:"capability"`
	Level      string `json:"level"`
	Granted    bool   `json:"granted"`
	Reason     string `json:"reason,omitempty"`
}

func (PermissionCheck) Kind() string { return "PermissionCheck" }

type SandboxViolation struct {
	Reason string `json:"reason"`
}

func (SandboxViolation) Kind() string { return "SandboxViolation" }

// Filesystem events.

type FileRead struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

func (FileRead) Kind() string { return "FileRead" }

type FileWrite struct {
	Path           string `json:"path"`
	Size           int64  `json:"size"`
	ChecksumBefore string `json:"checksum_before,omitempty"`
	ChecksumAfter  string `json:"checksum_after"`
	BackupCreated  bool   `json:"backup_created"`
}

func (FileWrite) Kind() string { return "FileWrite" }

type FileCreate struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func (FileCreate) Kind() string { return "FileCreate" }

type FileDelete struct {
	Path           string `json:"path"`
	Size           int64  `json:"size"`
	ChecksumBefore string `json:"checksum_before"`
	BackupCreated  bool   `json:"backup_created"`
}

func (FileDelete) Kind() string { return "FileDelete" }

type DirectoryCreate struct {
	Path string `json:"path"`
}

func (DirectoryCreate) Kind() string { return "DirectoryCreate" }

type DirectoryDelete struct {
	Path string `json:"path"`
}

func (DirectoryDelete) Kind() string { return "DirectoryDelete" }

// Other events.

type SecurityWarning struct {
	Message string `json:"message"`
}

func (SecurityWarning) Kind() string { return "SecurityWarning" }

type SystemError struct {
	Message string `json:"message"`
}

func (SystemError) Kind() string { return "SystemError" }

type ValidationError struct {
	Message string `json:"message"`
}

func (ValidationError) Kind() string { return "ValidationError" }

type ApprovalRequired struct {
	Reason string `json:"reason"`
}

func (ApprovalRequired) Kind() string { return "ApprovalRequired" }

// dataConstructors maps each Kind discriminator to a fresh zero value,
// used to decode a log line's "data" object back into its concrete type.
var dataConstructors = map[string]func() AuditEventData{
	"SessionStart":     func() AuditEventData { return &SessionStart{} },
	"SessionEnd":       func() AuditEventData { return &SessionEnd{} },
	"SessionPause":     func() AuditEventData { return &SessionPause{} },
	"SessionResume":    func() AuditEventData { return &SessionResume{} },
	"CommandRequested": func() AuditEventData { return &CommandRequested{} },
	"CommandPreview":   func() AuditEventData { return &CommandPreview{} },
	"CommandApproved":  func() AuditEventData { return &CommandApproved{} },
	"CommandRejected":  func() AuditEventData { return &CommandRejected{} },
	"CommandStarted":   func() AuditEventData { return &CommandStarted{} },
	"CommandCompleted": func() AuditEventData { return &CommandCompleted{} },
	"CommandError":     func() AuditEventData { return &CommandError{} },
	"PermissionCheck":  func() AuditEventData { return &PermissionCheck{} },
	"SandboxViolation": func() AuditEventData { return &SandboxViolation{} },
	"FileRead":         func() AuditEventData { return &FileRead{} },
	"FileWrite":        func() AuditEventData { return &FileWrite{} },
	"FileCreate":       func() AuditEventData { return &FileCreate{} },
	"FileDelete":       func() AuditEventData { return &FileDelete{} },
	"DirectoryCreate":  func() AuditEventData { return &DirectoryCreate{} },
	"DirectoryDelete":  func() AuditEventData { return &DirectoryDelete{} },
	"SecurityWarning":  func() AuditEventData { return &SecurityWarning{} },
	"SystemError":      func() AuditEventData { return &SystemError{} },
	"ValidationError":  func() AuditEventData { return &ValidationError{} },
	"ApprovalRequired": func() AuditEventData { return &ApprovalRequired{} },
}
