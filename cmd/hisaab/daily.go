package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/hisaab/core"
	"github.com/sonnes/hisaab/reader"
	"github.com/sonnes/hisaab/reader/claude"
	"github.com/sonnes/hisaab/reader/codex"
	"github.com/sonnes/hisaab/report"
	"github.com/urfave/cli/v3"
)

func dailyCmd() *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "Report token usage per day and model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "since",
				Usage: "First day to include (YYYYMMDD or YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "until",
				Usage: "Last day to include (YYYYMMDD or YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:    "claude-dir",
				Usage:   "Claude Code projects directory (default ~/.claude/projects)",
				Sources: cli.EnvVars("HISAAB_CLAUDE_DIR"),
			},
			&cli.StringFlag{
				Name:    "codex-dir",
				Usage:   "Codex CLI sessions directory (default ~/.codex/sessions)",
				Sources: cli.EnvVars("HISAAB_CODEX_DIR"),
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "IANA time zone for Claude entry dates (default: system zone)",
			},
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, json",
				Value: "terminal",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Also merge the report into this JSON file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := newApp()

			rnd, err := a.renderer(cmd.String("o"))
			if err != nil {
				return err
			}
			rng, err := dateRange(cmd)
			if err != nil {
				return err
			}
			loc, err := location(cmd)
			if err != nil {
				return err
			}

			rep, err := buildReport(
				&claude.Reader{Dir: cmd.String("claude-dir"), Range: rng, Location: loc},
				&codex.Reader{Dir: cmd.String("codex-dir"), Range: rng},
			)
			if err != nil {
				return err
			}

			if out := cmd.String("out"); out != "" {
				if err := mergeReport(out, rep, rng); err != nil {
					return err
				}
			}

			if err := rnd.Render(cmd.Root().Writer, rep); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return nil
		},
	}
}

// buildReport scans Claude projects, then Codex sessions. A missing log
// directory means the agent is not installed and is not an error.
func buildReport(cr *claude.Reader, xr *codex.Reader) (*report.Report, error) {
	rep := &report.Report{}
	start := time.Now()

	entries := 0
	err := cr.ReadAll(func(rec core.UsageRecord) {
		rep.Add(rec)
		entries++
	})
	if err := skipMissing("claude", err); err != nil {
		return nil, err
	}

	sessions := 0
	err = xr.ReadAll(func(s core.CodexSnapshot) {
		rep.AddSnapshot(s)
		sessions++
	})
	if err := skipMissing("codex", err); err != nil {
		return nil, err
	}

	log.Info("scanned logs", "claude_entries", entries, "codex_sessions", sessions, "days", len(rep.Days), "took", time.Since(start))
	return rep, nil
}

func skipMissing(agent string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("no session logs", "agent", agent, "err", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s logs: %w", agent, err)
	}
	return nil
}

// mergeReport folds rep into the report file at path. Stored days inside rng
// were rescanned, so they are replaced by rep (or dropped when the scan found
// nothing for them); days outside rng are kept.
func mergeReport(path string, rep *report.Report, rng reader.Range) error {
	existing, err := report.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read report %s: %w", path, err)
	}
	existing.DropDays(rng.Contains)
	existing.Merge(rep)
	if err := existing.WriteFile(path); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	log.Info("wrote report", "path", path, "days", len(existing.Days))
	return nil
}

