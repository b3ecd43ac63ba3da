package main

import (
	"context"
	"fmt"

	"github.com/sonnes/hisaab/install"
	"github.com/urfave/cli/v3"
)

func installFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "settings",
			Usage: "Claude Code settings file (default ~/.claude/settings.json)",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Report file kept current by the hook (default ~/.hisaab/report.json)",
		},
	}
}

func installConfig(cmd *cli.Command) install.Config {
	return install.Config{
		Settings: cmd.String("settings"),
		Report:   cmd.String("out"),
	}
}

func installCmd() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Update a usage report whenever a Claude Code session ends",
		Description: `Adds a SessionEnd hook to the Claude Code settings that runs
'hisaab daily' for the current day and merges the result into a report file.
Other settings and hooks are left untouched.`,
		Flags: installFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := installConfig(cmd)
			installed, err := install.Run(cfg)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if !installed {
				fmt.Fprintln(w, "Already installed.")
				return nil
			}
			fmt.Fprintln(w, "Installed successfully.")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  Hook:  %s\n", cfg.HookCommand())
			return nil
		},
	}
}

func uninstallCmd() *cli.Command {
	return &cli.Command{
		Name:  "uninstall",
		Usage: "Remove the SessionEnd hook added by install",
		Flags: installFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			removed, err := install.Uninstall(installConfig(cmd))
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.Root().Writer, "Uninstalled.")
			} else {
				fmt.Fprintln(cmd.Root().Writer, "Not installed.")
			}
			return nil
		},
	}
}
