package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/relaydev/execcore/pkg/command"
	"github.com/relaydev/execcore/pkg/sandbox"
)

// searchArgs is the JSON payload for the search command.
type searchArgs struct {
	Query           string `json:"query"`
	Pattern         string `json:"pattern,omitempty"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty"`
	Regex           bool   `json:"regex,omitempty"`
	MaxResults      int    `json:"max_results,omitempty"`
	FilenameOnly    bool   `json:"filename_only,omitempty"`
}

// searchMatch is one line-level hit.
type searchMatch struct {
	Path       string `json:"path"`
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	MatchCount int    `json:"match_count"`
}

// textFileExtensions mirrors the allowlist used to skip binary files when
// scanning a workspace for text matches.
var textFileExtensions = map[string]bool{
	".go": true, ".rs": true, ".toml": true, ".md": true, ".txt": true,
	".json": true, ".yaml": true, ".yml": true, ".sh": true, ".py": true,
	".js": true, ".ts": true, ".html": true, ".css": true, ".xml": true,
	".c": true, ".cpp": true, ".h": true, ".hpp": true, ".java": true,
	".kt": true, ".swift": true, ".rb": true, ".php": true, ".sql": true,
	".lock": true, ".env": true,
}

func isTextFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return strings.EqualFold(filepath.Base(path), ".gitignore")
	}
	return textFileExtensions[ext]
}

// shouldSearchFile applies an optional glob-ish filename filter: a pattern
// containing "*" has its first "*." replaced by "." and the result is
// matched as a literal filename suffix (so "*.go" matches names ending in
// ".go"); any other pattern is a plain substring match on the filename.
func shouldSearchFile(path, pattern string) bool {
	if pattern == "" {
		return true
	}
	name := filepath.Base(path)
	if strings.Contains(pattern, "*") {
		suffix := strings.Replace(pattern, "*.", ".", 1)
		return strings.HasSuffix(name, suffix)
	}
	return strings.Contains(name, pattern)
}

// checkpointInterval is how often (in files visited) the walk re-checks the
// cancellation token: every checkpointInterval-th file, not every entry.
const checkpointInterval = 25

// Search scans workspace files for lines matching a literal substring or
// regular expression.
type Search struct{}

func (Search) Descriptor() command.Descriptor {
	return command.Descriptor{
		Name:                 "search",
		Description:          "Search for text across workspace files with optional regex and filename filtering",
		Version:              "1.0.0",
		CapabilitiesRequired: []command.Capability{command.ReadFile},
		SandboxLevelRequired: sandbox.ReadOnly,
		SupportsPreview:      true,
		SupportsDryRun:       false,
	}
}

func (Search) ValidateArgs(raw json.RawMessage) error {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return &command.ValidationError{Field: "args", Message: err.Error()}
	}
	if args.Query == "" {
		return &command.ValidationError{Field: "query", Message: "must not be empty"}
	}
	if args.Regex {
		pattern := args.Query
		if args.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return &command.ValidationError{Field: "query", Message: fmt.Sprintf("invalid regex: %v", err)}
		}
	}
	return nil
}

func (Search) Preview(ctx *command.Context, raw json.RawMessage) (*command.Preview, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return &command.Preview{
		CommandID:        "search",
		Description:      fmt.Sprintf("Search workspace for %q", args.Query),
		Actions:          []command.PreviewAction{command.ReadFileAction{Path: ctx.WorkspacePath}},
		RequiresApproval: false,
	}, nil
}

func (Search) Execute(ctx *command.Context, raw json.RawMessage) (*command.Result, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.MaxResults <= 0 {
		args.MaxResults = 100
	}

	var re *regexp.Regexp
	if args.Regex {
		pattern := args.Query
		if args.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return &command.Result{Success: false, Error: fmt.Sprintf("invalid regex: %v", err)}, nil
		}
	}

	var matches []searchMatch
	filesVisited := 0
	cancelled := false

	walkErr := filepath.Walk(ctx.WorkspacePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		filesVisited++
		if filesVisited%checkpointInterval == 0 && ctx.Cancellation != nil && ctx.Cancellation.Cancelled() {
			cancelled = true
			return command.ErrCancelled
		}
		if len(matches) >= args.MaxResults {
			return nil
		}
		if !isTextFile(path) || !shouldSearchFile(path, args.Pattern) {
			return nil
		}

		found, searchErr := searchInFile(path, args.Query, args.CaseInsensitive, re, args.FilenameOnly, args.MaxResults-len(matches))
		if searchErr != nil {
			return nil
		}
		matches = append(matches, found...)
		return nil
	})
	if walkErr != nil && !cancelled {
		return &command.Result{Success: false, Error: fmt.Sprintf("walk workspace: %v", walkErr)}, nil
	}

	body, err := json.Marshal(matches)
	if err != nil {
		return nil, fmt.Errorf("commands: marshal search results: %w", err)
	}
	output := string(body)
	if cancelled {
		output = fmt.Sprintf("cancelled after %d matches: %s", len(matches), output)
	}
	return &command.Result{
		CommandID: "search",
		Success:   true,
		Output:    output,
	}, nil
}

func searchInFile(path, query string, caseInsensitive bool, re *regexp.Regexp, filenameOnly bool, remaining int) ([]searchMatch, error) {
	if filenameOnly {
		if strings.Contains(path, query) {
			return []searchMatch{{Path: path, LineNumber: 0, Line: "", MatchCount: 1}}, nil
		}
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")

	var out []searchMatch
	for i, line := range lines {
		if len(out) >= remaining {
			break
		}
		var count int
		switch {
		case re != nil:
			count = len(re.FindAllString(line, -1))
		case caseInsensitive:
			count = strings.Count(strings.ToLower(line), strings.ToLower(query))
		default:
			count = strings.Count(line, query)
		}
		if count > 0 {
			out = append(out, searchMatch{Path: path, LineNumber: i + 1, Line: line, MatchCount: count})
		}
	}
	return out, nil
}
