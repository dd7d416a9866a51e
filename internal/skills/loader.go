// Package skills implements the two-layer skill loader: compact metadata
// for system-prompt injection, full body on demand, grounded on
// original_source/V1/anuris/agent/skills.py.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Skill is one loaded skill: its canonical name, frontmatter metadata, and
// markdown body.
type Skill struct {
	Name        string
	Description string
	Tags        string
	Aliases     []string
	Body        string
	Path        string
}

// Loader rescans its directories on every public call so runtime edits are
// always visible; earlier directories take precedence over later ones.
type Loader struct {
	dirs   []string
	skills map[string]Skill
	alias  map[string]string // alias key -> canonical name
}

// New returns a Loader over the given directories in precedence order
// (first directory wins on name collision). If dirs is empty, the default
// ".anuris_skills" (hidden, higher precedence) then "skills" under root are
// used.
func New(root string, dirs ...string) *Loader {
	if len(dirs) == 0 {
		dirs = []string{
			filepath.Join(root, ".anuris_skills"),
			filepath.Join(root, "skills"),
		}
	}
	l := &Loader{dirs: dirs}
	l.Refresh()
	return l
}

var frontmatterRE = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)$`)

// Refresh rescans every skill directory and rebuilds the alias index.
func (l *Loader) Refresh() {
	loaded := map[string]Skill{}

	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			stem := strings.TrimSuffix(name, ".md")
			if _, exists := loaded[stem]; exists {
				continue // earlier directories take precedence
			}
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			meta, body := parseFrontmatter(string(data))
			loaded[stem] = Skill{
				Name:        stem,
				Description: valueOr(meta["description"], "No description"),
				Tags:        meta["tags"],
				Aliases:     splitCSV(meta["aliases"]),
				Body:        body,
				Path:        path,
			}
		}
	}

	l.skills = loaded
	l.alias = buildAliasIndex(loaded)
}

func parseFrontmatter(text string) (map[string]string, string) {
	match := frontmatterRE.FindStringSubmatch(text)
	if match == nil {
		return map[string]string{}, strings.TrimSpace(text)
	}
	meta := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(match[1]), "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return meta, strings.TrimSpace(match[2])
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Descriptions returns a compact newline-joined catalog for system-prompt
// injection.
func (l *Loader) Descriptions() string {
	l.Refresh()
	if len(l.skills) == 0 {
		return "(no skills available)"
	}
	names := sortedNames(l.skills)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		s := l.skills[name]
		b.WriteString(fmt.Sprintf("- %s: %s", name, s.Description))
		if s.Tags != "" {
			b.WriteString(fmt.Sprintf(" [%s]", s.Tags))
		}
	}
	return b.String()
}

// Load resolves name (exact, normalized, alias, token-signature, nb-
// variants) and returns its wrapped body, or an Error: string with a
// close-match suggestion on miss.
func (l *Loader) Load(name string) string {
	l.Refresh()
	skill, ok := l.resolve(name)
	if !ok {
		suggestion := l.suggest(name)
		msg := fmt.Sprintf("Error: Unknown skill '%s'.", name)
		if suggestion != "" {
			msg += fmt.Sprintf(" Did you mean '%s'?", suggestion)
		}
		available := strings.Join(sortedNames(l.skills), ", ")
		if available == "" {
			available = "(none)"
		}
		msg += fmt.Sprintf(" Available: %s", available)
		return msg
	}
	return fmt.Sprintf("<skill name=\"%s\">\n%s\n</skill>", skill.Name, skill.Body)
}

func (l *Loader) resolve(name string) (Skill, bool) {
	if s, ok := l.skills[name]; ok {
		return s, true
	}
	normalized := normalize(name)
	if canonical, ok := l.alias[normalized]; ok {
		return l.skills[canonical], true
	}
	if stripped := strings.TrimPrefix(normalized, "nb-"); stripped != normalized {
		if canonical, ok := l.alias[stripped]; ok {
			return l.skills[canonical], true
		}
	}
	if canonical, ok := l.alias["nb-"+normalized]; ok {
		return l.skills[canonical], true
	}
	if canonical, ok := l.alias[tokenSignature(normalized)]; ok {
		return l.skills[canonical], true
	}
	return Skill{}, false
}

// RenderCatalog is a human-readable catalog for CLI output.
func (l *Loader) RenderCatalog() string {
	l.Refresh()
	if len(l.skills) == 0 {
		return "No skills found. Add Markdown files under .anuris_skills/ or skills/."
	}
	var b strings.Builder
	for i, name := range sortedNames(l.skills) {
		if i > 0 {
			b.WriteString("\n")
		}
		s := l.skills[name]
		b.WriteString(fmt.Sprintf("- %s: %s (%s)", name, s.Description, s.Path))
	}
	return b.String()
}

func sortedNames(skills map[string]Skill) []string {
	names := make([]string, 0, len(skills))
	for n := range skills {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
