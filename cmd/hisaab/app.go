package main

import (
	"fmt"
	"time"

	"github.com/sonnes/hisaab/calendar"
	"github.com/sonnes/hisaab/reader"
	"github.com/sonnes/hisaab/render"
	jsonrender "github.com/sonnes/hisaab/render/json"
	"github.com/sonnes/hisaab/render/terminal"
	"github.com/urfave/cli/v3"
)

// app holds the renderer registry used by CLI commands.
type app struct {
	renderers map[string]func() render.Renderer
}

func newApp() *app {
	return &app{
		renderers: map[string]func() render.Renderer{
			"terminal": func() render.Renderer { return terminal.New() },
			"json":     func() render.Renderer { return jsonrender.New() },
		},
	}
}

func (a *app) renderer(name string) (render.Renderer, error) {
	fn, ok := a.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(), nil
}

// dateRange builds the report range from --since and --until. Either may be
// omitted.
func dateRange(cmd *cli.Command) (reader.Range, error) {
	var r reader.Range
	var err error
	if s := cmd.String("since"); s != "" {
		if r.Since, err = calendar.Parse(s); err != nil {
			return r, fmt.Errorf("--since: %w", err)
		}
	}
	if s := cmd.String("until"); s != "" {
		if r.Until, err = calendar.Parse(s); err != nil {
			return r, fmt.Errorf("--until: %w", err)
		}
	}
	if r.Since != 0 && r.Until != 0 && r.Since > r.Until {
		return r, fmt.Errorf("--since %s is after --until %s", r.Since, r.Until)
	}
	return r, nil
}

// location resolves --tz. Empty means the system time zone.
func location(cmd *cli.Command) (*time.Location, error) {
	name := cmd.String("tz")
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("--tz: %w", err)
	}
	return loc, nil
}
