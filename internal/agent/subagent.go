package agent

import (
	"context"
	"log/slog"

	"github.com/anuris/anuris/internal/model"
	"github.com/anuris/anuris/internal/tools"
	"github.com/anuris/anuris/internal/workspace"
)

const subagentSystemPrompt = "You are a focused subagent. Complete the delegated task " +
	"and report back a concise final summary of what you found or did. Your final " +
	"message is the only thing the caller sees."

const noSubagentSummary = "(no summary)"

// SubagentFactory builds fresh, reduced-capability Runners for the `task`
// tool, mirroring loop.py's _run_subagent: every capability flag is off
// except file read/write/edit (write/edit gated on agent_type != "Explore"),
// and the child's round budget is halved from the parent's.
type SubagentFactory struct {
	Model           Completer
	Sandbox         *workspace.Sandbox
	ParentMaxRounds int
	Logger          *slog.Logger
}

// Runner returns a tools.SubagentRunner bound to this factory, suitable for
// wiring into tools.Deps.Subagent on the parent Executor.
func (f *SubagentFactory) Runner() tools.SubagentRunner {
	return f.run
}

func (f *SubagentFactory) run(ctx context.Context, prompt, agentType string) (string, error) {
	readonly := agentType == "Explore"

	childExec := tools.New(tools.Deps{Sandbox: f.Sandbox}, tools.Options{
		EnableFiles: true,
		Readonly:    readonly,
		Role:        agentType,
	}, f.Logger)

	maxRounds := f.ParentMaxRounds / 2
	if maxRounds < 4 {
		maxRounds = 4
	}
	childRunner := New(f.Model, childExec, nil, nil, nil, Options{MaxRounds: maxRounds})

	messages := []model.Message{
		{Role: model.RoleSystem, Content: subagentSystemPrompt},
		{Role: model.RoleUser, Content: prompt},
	}

	result, err := childRunner.Run(ctx, messages, nil)
	if err != nil && result.FinalText == "" {
		return "", err
	}
	if result.FinalText == "" {
		return noSubagentSummary, nil
	}
	return result.FinalText, nil
}
