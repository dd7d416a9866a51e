package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/anuris/anuris/internal/background"
)

const (
	bashTimeout    = 120 * time.Second
	maxBashOutput  = 50_000
)

// readonlyBashAllowlist is the teammate read-only role's safe command set,
// matching SPEC_FULL.md §4.9.
var readonlyBashAllowlist = map[string]bool{
	"pwd": true, "ls": true, "cat": true, "head": true, "tail": true,
	"wc": true, "rg": true, "find": true, "sed": true, "git": true,
}

var readonlyGitSubcommands = map[string]bool{
	"status": true, "diff": true, "log": true, "show": true,
	"branch": true, "rev-parse": true,
}

var shellMetacharacters = regexp.MustCompile("[;&|><$`\n]")

func (e *Executor) runBash(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("command is required")
	}
	if background.IsDangerous(command) {
		return "", fmt.Errorf("Dangerous command blocked")
	}
	if e.opts.Readonly {
		if err := checkReadonlyBash(command); err != nil {
			return "", fmt.Errorf("Role '%s' is read-only; bash command blocked", e.opts.Role)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, bashTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	if e.sandbox != nil {
		cmd.Dir = e.sandbox.Root()
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("Timeout (%ds)", int(bashTimeout.Seconds()))
	}
	if err != nil {
		return "", fmt.Errorf("command failed: %w", err)
	}

	result := strings.TrimSpace(out.String())
	if len(result) > maxBashOutput {
		result = result[:maxBashOutput]
	}
	if result == "" {
		result = "(no output)"
	}
	return result, nil
}

// checkReadonlyBash enforces the teammate read-only restriction: no shell
// metacharacters, and the leading command token (or "git <subcommand>")
// must be on the allowlist.
func checkReadonlyBash(command string) error {
	if shellMetacharacters.MatchString(command) {
		return fmt.Errorf("shell metacharacters are not allowed in read-only mode")
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("command is required")
	}
	head := fields[0]
	if head == "sed" {
		for _, f := range fields[1:] {
			if f == "-i" || strings.HasPrefix(f, "-i") {
				return fmt.Errorf("sed -i is not allowed in read-only mode")
			}
		}
		return nil
	}
	if head == "git" {
		if len(fields) < 2 || !readonlyGitSubcommands[fields[1]] {
			return fmt.Errorf("git subcommand not allowed in read-only mode")
		}
		return nil
	}
	if !readonlyBashAllowlist[head] {
		return fmt.Errorf("command %q not allowed in read-only mode", head)
	}
	return nil
}
