package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	hostconfig "github.com/anuris/anuris/cmd/anuris/config"
	"github.com/anuris/anuris/internal/agent"
	"github.com/anuris/anuris/internal/background"
	"github.com/anuris/anuris/internal/compact"
	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/secrets"
	"github.com/anuris/anuris/internal/session"
	"github.com/anuris/anuris/internal/skills"
	"github.com/anuris/anuris/internal/tasks"
	"github.com/anuris/anuris/internal/team"
	"github.com/anuris/anuris/internal/todo"
	"github.com/anuris/anuris/internal/tools"
	"github.com/anuris/anuris/internal/workspace"
)

// runtime bundles every collaborator the CLI commands need, built once per
// invocation by buildRuntime.
type runtime struct {
	cfg        hostconfig.File
	sandbox    *workspace.Sandbox
	llmClient  *llm.Client
	toolExec   *tools.Executor
	runner     *agent.Runner
	todoMgr    *todo.Manager
	taskBoard  *tasks.Manager
	skillsLib  *skills.Loader
	background *background.Manager
	teamMgr    *team.Manager
	heartbeat  *team.Heartbeat
	sessions   *session.Store
	logger     *slog.Logger
}

// buildRuntime loads config and secrets, then wires every collaborator
// package together exactly as the teacher's assistant.Start does: sandbox
// first, then the stateful stores, then the tool executor, then the agent
// runner on top.
func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	_ = godotenv.Load()

	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	if cfgPath == "" {
		var err error
		cfgPath, err = hostconfig.Path()
		if err != nil {
			return nil, err
		}
	}
	cfgFile, err := hostconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	provider := string(llm.DetectProvider(cfgFile.BaseURL, cfgFile.Model))
	apiKey, source := secrets.ResolveAPIKey(provider, cfgFile.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured: set it via `anuris config set-key`, ANURIS_API_KEY (or the provider's own variable, e.g. OPENAI_API_KEY), or api_key in %s", cfgPath)
	}
	cfgFile.APIKey = apiKey
	logger.Debug("resolved api key", "source", source)

	workspaceRoot, _ := cmd.Root().PersistentFlags().GetString("workspace")
	if workspaceRoot == "" {
		workspaceRoot, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}

	sandbox, err := workspace.New(workspaceRoot)
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.New(llm.Config{
		APIKey:        cfgFile.APIKey,
		BaseURL:       cfgFile.BaseURL,
		Model:         cfgFile.Model,
		FallbackModel: "",
		Proxy:         cfgFile.Proxy,
		Reasoning:     cfgFile.Reasoning,
		Debug:         cfgFile.Debug,
	}, logger)
	if err != nil {
		return nil, err
	}

	taskBoard, err := tasks.New(filepath.Join(sandbox.Root(), ".anuris_tasks"))
	if err != nil {
		return nil, err
	}
	teamMgr, err := team.New(sandbox.Root())
	if err != nil {
		return nil, err
	}

	cipher := secrets.StateCipherFromEnv(os.Getenv)
	if cipher != nil {
		taskBoard.SetCipher(cipher)
		teamMgr.Bus.SetCipher(cipher)
		logger.Debug("at-rest state encryption enabled")
	}

	todoMgr := todo.New()
	skillsLib := skills.New(sandbox.Root())
	bg := background.New(sandbox.Root())
	compactor := compact.New(llmClient, filepath.Join(sandbox.Root(), ".anuris_transcripts"))

	subagentFactory := &agent.SubagentFactory{
		Model:           llmClient,
		Sandbox:         sandbox,
		ParentMaxRounds: agentDefaultMaxRounds,
		Logger:          logger,
	}

	toolExec := tools.New(tools.Deps{
		Sandbox:    sandbox,
		Todo:       todoMgr,
		TaskBoard:  taskBoard,
		Skills:     skillsLib,
		Background: bg,
		Team:       teamMgr,
		Subagent:   subagentFactory.Runner(),
	}, tools.Options{
		EnableBash:       true,
		EnableFiles:      true,
		EnableTodo:       true,
		EnableTaskBoard:  true,
		EnableSkills:     true,
		EnableBackground: true,
		EnableSubagent:   true,
		EnableTeamLead:   true,
	}, logger)

	teamMgr.SetWorkerRunner((&agent.TeammateWorker{
		Model:     llmClient,
		Sandbox:   sandbox,
		TaskBoard: taskBoard,
		Team:      teamMgr,
		Logger:    logger,
	}).Run)

	heartbeat := team.NewHeartbeat(teamMgr, logger)
	if err := heartbeat.Start(); err != nil {
		return nil, fmt.Errorf("start team heartbeat: %w", err)
	}

	runner := agent.New(llmClient, toolExec, compactor, bg, skillsLib, agent.Options{MaxRounds: agentDefaultMaxRounds})

	sessionPath := filepath.Join(sandbox.Root(), ".anuris_sessions", "sessions.db")
	sessionStore, err := session.Open(sessionPath)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:        cfgFile,
		sandbox:    sandbox,
		llmClient:  llmClient,
		toolExec:   toolExec,
		runner:     runner,
		todoMgr:    todoMgr,
		taskBoard:  taskBoard,
		skillsLib:  skillsLib,
		background: bg,
		teamMgr:    teamMgr,
		heartbeat:  heartbeat,
		sessions:   sessionStore,
		logger:     logger,
	}, nil
}

const agentDefaultMaxRounds = 40

// Close releases the runtime's long-lived resources (heartbeat scheduler,
// session database).
func (rt *runtime) Close() {
	if rt.heartbeat != nil {
		rt.heartbeat.Stop()
	}
	if rt.sessions != nil {
		rt.sessions.Close()
	}
}

// systemMessageContent renders the system prompt plus skill preamble, the
// same composition _inject_agent_instruction performs before every turn.
func (rt *runtime) systemMessageContent() string {
	base := rt.cfg.SystemPrompt
	if base == "" {
		base = defaultSystemPrompt
	}
	if preamble := agent.BuildPreamble(rt.skillsLib); preamble != "" {
		base = base + "\n\n" + preamble
	}
	return base
}

const defaultSystemPrompt = "You are anuris, a terminal coding agent. Use the available tools to " +
	"read, write, and run code in the current workspace. Be direct and concise."
