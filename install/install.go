// Package install registers a Claude Code SessionEnd hook that folds the
// day's usage into a report file whenever a session ends.
package install

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sessionEnd = "SessionEnd"

// Config holds the settings for the install and uninstall commands.
type Config struct {
	Settings string // Claude Code settings file (default ~/.claude/settings.json)
	Report   string // report file the hook keeps current (default ~/.hisaab/report.json)
	Binary   string // hisaab executable (default: the running executable)
}

func (c Config) withDefaults() Config {
	home, _ := os.UserHomeDir()
	if c.Settings == "" {
		c.Settings = filepath.Join(home, ".claude", "settings.json")
	}
	if c.Report == "" {
		c.Report = filepath.Join(home, ".hisaab", "report.json")
	}
	if c.Binary == "" {
		c.Binary = "hisaab"
		if exe, err := os.Executable(); err == nil {
			c.Binary = exe
		}
	}
	return c
}

// HookCommand is the shell command run at the end of every session. It
// rescans today only; --out keeps earlier days in the report.
func (c Config) HookCommand() string {
	c = c.withDefaults()
	return fmt.Sprintf(`%s daily --since "$(date +%%Y-%%m-%%d)" --out %s -o json >/dev/null 2>&1 || true`,
		shellQuote(c.Binary), shellQuote(c.Report))
}

// matcherGroup is one entry of a hook event list in settings.json. Handlers
// are kept as generic maps so fields this package does not know survive a
// rewrite.
type matcherGroup struct {
	Matcher string           `json:"matcher,omitempty"`
	Hooks   []map[string]any `json:"hooks"`
}

// Run adds the SessionEnd hook to the settings file, creating it if needed.
// It reports false when the hook was already present.
func Run(cfg Config) (bool, error) {
	cfg = cfg.withDefaults()
	settings, hooks, err := readSettings(cfg.Settings)
	if err != nil {
		return false, err
	}

	command := cfg.HookCommand()
	for _, mg := range hooks[sessionEnd] {
		for _, h := range mg.Hooks {
			if h["command"] == command {
				return false, nil
			}
		}
	}

	hooks[sessionEnd] = append(hooks[sessionEnd], matcherGroup{
		Hooks: []map[string]any{{"type": "command", "command": command}},
	})
	return true, writeSettings(cfg.Settings, settings, hooks)
}

// Uninstall removes the hook added by Run. It reports false when there was
// nothing to remove.
func Uninstall(cfg Config) (bool, error) {
	cfg = cfg.withDefaults()
	settings, hooks, err := readSettings(cfg.Settings)
	if err != nil {
		return false, err
	}

	command := cfg.HookCommand()
	removed := false
	var kept []matcherGroup
	for _, mg := range hooks[sessionEnd] {
		var handlers []map[string]any
		for _, h := range mg.Hooks {
			if h["command"] == command {
				removed = true
				continue
			}
			handlers = append(handlers, h)
		}
		if len(handlers) > 0 {
			mg.Hooks = handlers
			kept = append(kept, mg)
		}
	}
	if !removed {
		return false, nil
	}

	if len(kept) == 0 {
		delete(hooks, sessionEnd)
	} else {
		hooks[sessionEnd] = kept
	}
	return true, writeSettings(cfg.Settings, settings, hooks)
}

// readSettings loads the settings file as raw top-level fields plus the
// decoded hooks map. A missing file yields empty settings.
func readSettings(path string) (map[string]json.RawMessage, map[string][]matcherGroup, error) {
	settings := make(map[string]json.RawMessage)
	hooks := make(map[string][]matcherGroup)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, hooks, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw, ok := settings["hooks"]; ok {
		if err := json.Unmarshal(raw, &hooks); err != nil {
			return nil, nil, fmt.Errorf("parse hooks in %s: %w", path, err)
		}
	}
	return settings, hooks, nil
}

func writeSettings(path string, settings map[string]json.RawMessage, hooks map[string][]matcherGroup) error {
	if len(hooks) == 0 {
		delete(settings, "hooks")
	} else {
		raw, err := encode(hooks, false)
		if err != nil {
			return err
		}
		settings["hooks"] = bytes.TrimSpace(raw)
	}

	out, err := encode(settings, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// encode marshals v without HTML escaping so shell redirections in hook
// commands stay readable.
func encode(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
