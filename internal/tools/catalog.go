package tools

import "github.com/anuris/anuris/internal/llm"

// Options selects which tools are exposed, mirroring the teacher's
// "selected by boolean feature flags at construction time" catalog
// construction. Readonly additionally narrows bash/file tools per the
// teammate read-only role restriction (SPEC_FULL.md §4.9).
type Options struct {
	EnableBash       bool
	EnableFiles      bool
	EnableTodo       bool
	EnableTaskBoard  bool
	EnableSkills     bool
	EnableBackground bool
	EnableSubagent   bool
	EnableTeamLead   bool
	EnableTeammate   bool
	Readonly         bool
	// Role names the caller for the "Role '<r>' is read-only; ..." error
	// text; only meaningful when Readonly is true.
	Role string
}

func strProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func schema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func def(name, description string, params map[string]any) llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFuncSpec{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

// Definitions returns the tool catalog enabled by opts.
func (e *Executor) Definitions() []llm.ToolDef {
	opts := e.opts
	var defs []llm.ToolDef

	if opts.EnableBash {
		desc := "Run a shell command in the workspace and capture its output."
		if opts.Readonly {
			desc = "Run a read-only shell command (pwd, ls, cat, head, tail, wc, rg, find, sed without -i, or a read-only git subcommand); no shell metacharacters."
		}
		defs = append(defs, def("bash", desc,
			schema(map[string]any{"command": strProp("the command to run")}, "command")))
	}

	if opts.EnableFiles {
		defs = append(defs, def("read_file", "Read a file from the workspace, optionally capped to a line count.",
			schema(map[string]any{
				"path":      strProp("workspace-relative file path"),
				"max_lines": intProp("truncate output after this many lines"),
			}, "path")))

		if !opts.Readonly {
			defs = append(defs, def("write_file", "Create or overwrite a file in the workspace, creating parent directories as needed.",
				schema(map[string]any{
					"path":    strProp("workspace-relative file path"),
					"content": strProp("full file content"),
				}, "path", "content")))

			defs = append(defs, def("edit_file", "Replace the first occurrence of old_text with new_text in a file.",
				schema(map[string]any{
					"path":     strProp("workspace-relative file path"),
					"old_text": strProp("exact text to replace"),
					"new_text": strProp("replacement text"),
				}, "path", "old_text", "new_text")))
		}
	}

	if opts.EnableTodo {
		defs = append(defs, def("TodoWrite", "Replace the current todo list wholesale.",
			schema(map[string]any{
				"items": map[string]any{
					"type":        "array",
					"description": "the full todo list",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"content":    strProp("todo text"),
							"status":     strProp("pending | in_progress | completed"),
							"activeForm": strProp("present-continuous label while in_progress"),
						},
					},
				},
			}, "items")))
	}

	if opts.EnableSubagent {
		defs = append(defs, def("task", "Delegate a self-contained piece of work to a fresh subagent.",
			schema(map[string]any{
				"prompt":     strProp("the subagent's instructions"),
				"agent_type": strProp("Explore (read-only) or general-purpose (can write/edit)"),
			}, "prompt", "agent_type")))
	}

	if opts.EnableTaskBoard {
		defs = append(defs,
			def("task_create", "Create a new persistent task.",
				schema(map[string]any{
					"subject":     strProp("short title"),
					"description": strProp("details"),
				}, "subject")),
			def("task_get", "Fetch one task by id.",
				schema(map[string]any{"id": intProp("task id")}, "id")),
			def("task_update", "Update a task's status, owner, or dependencies.",
				schema(map[string]any{
					"id":              intProp("task id"),
					"status":          strProp("pending | in_progress | completed | deleted"),
					"owner":           strProp("new owner"),
					"add_blocked_by":  map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
					"add_blocks":      map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
				}, "id")),
			def("task_list", "List all tasks.", schema(map[string]any{})),
		)
	}

	if opts.EnableTaskBoard || opts.EnableTeammate {
		defs = append(defs, def("claim_task", "Claim the next unblocked pending task, or a specific task id.",
			schema(map[string]any{"id": intProp("task id (omit to claim the next unblocked task)")})))
	}

	if opts.EnableSkills {
		defs = append(defs, def("load_skill", "Load a skill's full body by name.",
			schema(map[string]any{"name": strProp("skill name, alias, or close match")}, "name")))
	}

	if opts.EnableBackground {
		defs = append(defs,
			def("background_run", "Start a shell command asynchronously and return its task id.",
				schema(map[string]any{
					"command":         strProp("the command to run"),
					"timeout_seconds": intProp("wall-clock timeout, default 300"),
				}, "command")),
			def("check_background", "Check a background task's status, or list all of them.",
				schema(map[string]any{"task_id": strProp("task id (omit for a summary of all tasks)")})),
		)
	}

	if opts.EnableTeamLead {
		defs = append(defs,
			def("spawn_teammate", "Spawn a teammate worker on a task.",
				schema(map[string]any{
					"name":   strProp("teammate name"),
					"role":   strProp("teammate role"),
					"prompt": strProp("the teammate's instructions"),
				}, "name", "prompt")),
			def("list_teammates", "List the team roster and statuses.", schema(map[string]any{})),
			def("send_message", "Send a message to a named teammate's inbox.",
				schema(map[string]any{"to": strProp("recipient name"), "content": strProp("message body")}, "to", "content")),
			def("read_inbox", "Drain and return messages from an inbox.",
				schema(map[string]any{"name": strProp("inbox name, default 'lead'")})),
			def("broadcast", "Send a message to every teammate except lead.",
				schema(map[string]any{"content": strProp("message body")}, "content")),
			def("shutdown_request", "Ask a teammate to shut down gracefully.",
				schema(map[string]any{"teammate": strProp("teammate name")}, "teammate")),
			def("shutdown_status", "Check one shutdown request's status.",
				schema(map[string]any{"request_id": strProp("request id")}, "request_id")),
			def("shutdown_list", "List all shutdown requests.", schema(map[string]any{})),
			def("plan_review", "Approve or reject a submitted plan.",
				schema(map[string]any{
					"request_id": strProp("request id"),
					"approve":    boolProp("approve or reject"),
					"feedback":   strProp("feedback for the submitter"),
				}, "request_id", "approve")),
			def("plan_list", "List all plan requests.", schema(map[string]any{})),
		)
	}

	if opts.EnableTeammate {
		defs = append(defs,
			def("send_message", "Send a message to a named inbox (typically 'lead').",
				schema(map[string]any{"to": strProp("recipient name"), "content": strProp("message body")}, "to", "content")),
			def("read_inbox", "Drain and return this worker's own inbox.", schema(map[string]any{})),
			def("shutdown_response", "Respond to a pending shutdown request.",
				schema(map[string]any{
					"request_id": strProp("request id"),
					"approve":    boolProp("approve or reject"),
					"reason":     strProp("reason"),
				}, "request_id", "approve")),
			def("plan_submit", "Submit a plan to the lead for approval.",
				schema(map[string]any{"plan": strProp("the plan text")}, "plan")),
			def("idle", "Signal end-of-work and enter the polling phase.", schema(map[string]any{})),
		)
	}

	return defs
}
