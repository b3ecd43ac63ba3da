package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := rootCmd().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:  "hisaab",
		Usage: "Daily token usage accounting for Claude Code and Codex CLI sessions",
		Description: `
  _    _             _
 | |_ (_)___ __ _ __ _| |__
 | ' \| (_-</ _' / _' | '_ \
 |_||_|_/__/\__,_\__,_|_.__/

 The ledger of tokens, read straight from agent session logs.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			dailyCmd(),
			sessionCmd(),
			installCmd(),
			uninstallCmd(),
		},
	}
}
