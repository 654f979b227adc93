package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relaydev/execcore/pkg/approval"
	"github.com/relaydev/execcore/pkg/execerr"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "execcore: %v\n", err)
		os.Exit(execerr.ExitCode(err))
	}
}

// stdioApprovalBackend prompts the operator on the controlling terminal; it
// is wired in regardless of --interactive so a Manager configured
// non-interactive simply never reaches it.
type stdioApprovalBackend struct{}

func (stdioApprovalBackend) Prompt(ctx context.Context, req approval.ApprovalRequest) (bool, error) {
	fmt.Fprintf(os.Stderr, "\napproval required (risk: %s): %s\n", req.RiskLevel, req.Description)
	for _, d := range req.Details {
		fmt.Fprintf(os.Stderr, "  - %s\n", d)
	}
	fmt.Fprint(os.Stderr, "approve? [y/N] ")

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return false, r.err
		}
		answer := strings.ToLower(strings.TrimSpace(r.line))
		return answer == "y" || answer == "yes", nil
	}
}
