package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxReadFileBytes = 50_000

func (e *Executor) readFile(args ReadFileArgs) (string, error) {
	path, err := e.sandbox.Resolve(args.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args.Path, err)
	}

	text := string(data)
	if args.MaxLines > 0 {
		lines := strings.Split(text, "\n")
		if len(lines) > args.MaxLines {
			remaining := len(lines) - args.MaxLines
			text = strings.Join(lines[:args.MaxLines], "\n") +
				fmt.Sprintf("\n... (%d more lines)", remaining)
		}
	}

	if len(text) > maxReadFileBytes {
		text = text[:maxReadFileBytes]
	}
	return text, nil
}

func (e *Executor) writeFile(args WriteFileArgs) (string, error) {
	path, err := e.sandbox.Resolve(args.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create parent dirs: %w", err)
	}
	if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", args.Path, err)
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(args.Content), args.Path), nil
}

func (e *Executor) editFile(args EditFileArgs) (string, error) {
	path, err := e.sandbox.Resolve(args.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args.Path, err)
	}

	original := string(data)
	idx := strings.Index(original, args.OldText)
	if idx == -1 {
		return "", fmt.Errorf("old_text not found in %s", args.Path)
	}
	updated := original[:idx] + args.NewText + original[idx+len(args.OldText):]

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", args.Path, err)
	}
	return fmt.Sprintf("Edited %s", args.Path), nil
}
