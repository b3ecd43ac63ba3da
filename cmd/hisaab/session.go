package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sonnes/hisaab/reader/codex"
	"github.com/urfave/cli/v3"
)

func sessionCmd() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Print the cumulative token usage of one Codex session file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to a Codex rollout file under sessions/YYYY/MM/DD/",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, json",
				Value: "terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			snap, err := codex.ReadSnapshot(cmd.String("file"))
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			switch cmd.String("o") {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			case "terminal":
				fmt.Fprintf(w, "%s  %s\n", snap.Date, snap.Path)
				for _, f := range []struct {
					label string
					value int
				}{
					{"input", snap.InputTokens},
					{"cached input", snap.CachedInputTokens},
					{"output", snap.OutputTokens},
					{"reasoning output", snap.ReasoningOutputTokens},
				} {
					fmt.Fprintf(w, "  %-16s %12s\n", f.label, humanize.Comma(int64(f.value)))
				}
				return nil
			default:
				return fmt.Errorf("unknown output format %q", cmd.String("o"))
			}
		},
	}
}
