package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/anuris/anuris/internal/model"
)

const defaultSessionID = "cli"

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the agent in the terminal",
		Long: `Start a conversation with the agent directly in the terminal.
Pass a message as an argument for a single turn, or run without arguments
for an interactive REPL that resumes the last session.

Examples:
  anuris chat "list the files in this repo"
  anuris chat                       # interactive REPL`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}
	cmd.Flags().String("session", defaultSessionID, "session id to resume/persist history under")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	messages, err := rt.loadOrStartSession(sessionID)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		messages, err = rt.turn(cmd.Context(), messages, args[0])
		if err != nil {
			return err
		}
		fmt.Println(messages[len(messages)-1].Content)
		return rt.sessions.Save(sessionID, messages)
	}

	return rt.runREPL(sessionID, messages)
}

// loadOrStartSession resumes sessionID's history from the session store,
// or seeds a fresh conversation with the system message when none exists.
func (rt *runtime) loadOrStartSession(sessionID string) ([]model.Message, error) {
	rec, err := rt.sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec.Messages, nil
	}
	return []model.Message{{Role: model.RoleSystem, Content: rt.systemMessageContent()}}, nil
}

// turn runs one agent loop over messages+input and returns the full
// updated message list including the assistant's final reply.
func (rt *runtime) turn(ctx context.Context, messages []model.Message, input string) ([]model.Message, error) {
	messages = append(messages, model.Message{Role: model.RoleUser, Content: input})
	result, err := rt.runner.Run(ctx, messages, nil)
	if err != nil {
		return result.Messages, fmt.Errorf("agent turn: %w", err)
	}
	return result.Messages, nil
}

func (rt *runtime) runREPL(sessionID string, messages []model.Message) error {
	historyFile := filepath.Join(rt.sandbox.Root(), ".anuris_sessions", "repl_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "you> ",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Println()
	fmt.Println("  anuris — terminal chat")
	fmt.Println("  Type your message and press Enter. Commands:")
	fmt.Println("    /quit   — exit")
	fmt.Println("    /clear  — start a fresh session")
	fmt.Println("    /tools  — list available tools")
	fmt.Println()

	ctx := context.Background()
	for {
		line, err := rl.Readline()
		if err != nil {
			fmt.Println()
			return rt.sessions.Save(sessionID, messages)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "/quit", "/exit", "/q":
			fmt.Println("bye!")
			return rt.sessions.Save(sessionID, messages)

		case "/clear":
			messages = []model.Message{{Role: model.RoleSystem, Content: rt.systemMessageContent()}}
			fmt.Println("  [session cleared]")
			continue

		case "/tools":
			for _, def := range rt.toolExec.Definitions() {
				fmt.Printf("    - %s\n", def.Function.Name)
			}
			continue
		}

		messages, err = rt.turn(ctx, messages, input)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if err := rt.sessions.Save(sessionID, messages); err != nil {
			fmt.Println("warning: failed to persist session:", err)
		}

		fmt.Println()
		fmt.Println(messages[len(messages)-1].Content)
		fmt.Println()
	}
}
