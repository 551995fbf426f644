package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/debug"
	"xr-trade/internal/engineconfig"
	"xr-trade/internal/env"
	"xr-trade/internal/graphics"
	"xr-trade/internal/input"
	"xr-trade/internal/interact"
	"xr-trade/internal/logger"
	"xr-trade/internal/scene"
	"xr-trade/internal/script"
	"xr-trade/internal/terminal"
	"xr-trade/internal/workshop"
)

type options struct {
	config      string
	layout      string
	script      string
	log         string
	debug       bool
	writeConfig bool
}

func main() {
	if err := env.Load(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "env:", err)
	}
	var o options
	flag.StringVar(&o.config, "config", env.String("CONFIG", engineconfig.PolicyPath), "interaction policy (YAML)")
	flag.StringVar(&o.layout, "layout", env.String("LAYOUT", workshop.LayoutPath), "workshop layout (YAML)")
	flag.StringVar(&o.script, "script", "", "replay this script headless instead of opening a window")
	flag.StringVar(&o.log, "log", env.String("LOG", logger.LogFilePath), "log file")
	flag.BoolVar(&o.debug, "debug", env.Bool("DEBUG", false), "log grabs, releases and actions")
	flag.BoolVar(&o.writeConfig, "write-config", false, "write the effective policy to -config and exit")
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(o options) error {
	log, err := logger.New(o.log, o.debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Close()

	policy, err := engineconfig.Load(o.config)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if o.writeConfig {
		return engineconfig.Save(o.config, policy)
	}
	layout, err := workshop.Load(o.layout)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	sess, err := interact.New(policy, log.SugaredLogger)
	if err != nil {
		return err
	}
	if _, err := layout.Spawn(sess.Registry); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	log.Infow("session ready", "layout", layout.Name, "entities", sess.Registry.Len(), "policy", policy)

	if o.script != "" {
		return replay(o.script, sess, log)
	}
	window(sess, layout, log)
	return nil
}

// replay runs a script file against the session and prints the fired actions and the final
// registry to stdout.
func replay(path string, sess *interact.Session, log *logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := script.New(sess, os.Stdout, log.SugaredLogger)
	if err := r.Run(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("%s ticks, %s actions\n", humanize.Comma(int64(sess.Ticks())), humanize.Comma(int64(len(r.Outcomes()))))
	script.Dump(os.Stdout, sess.Registry)
	log.Infow("replay done", "script", path, "ticks", sess.Ticks(), "actions", len(r.Outcomes()))
	return nil
}

func window(sess *interact.Session, layout workshop.Layout, log *logger.Logger) {
	kb := input.NewKeyboard(input.DefaultSpeed)
	scn := scene.New(layout.Color)
	dbg := debug.New()
	dbg.SetShowFPS(true)

	var r *script.Runner
	term := terminal.New(func(line string) error {
		r.Seed(kb.Inputs())
		err := r.Exec(line)
		kb.Sync(r.Inputs())
		return err
	})
	r = script.New(sess, term, log.SugaredLogger)
	term.Print("` toggles this console, G the grid; type help for commands")

	update := func() {
		term.Update()
		scn.Update()
		if term.IsOpen() {
			return
		}
		if rl.IsKeyPressed(rl.KeyG) {
			scn.SetGridVisible(!scn.GridVisible)
		}
		for _, out := range sess.Tick(kb.Poll()) {
			term.Print(script.FormatOutcome(out))
		}
	}
	draw := func() {
		scn.Draw(sess.Registry, sess.Hands)
		dbg.Draw(debug.HUD(sess, string(kb.Active())))
		term.Draw()
	}
	graphics.Run("xr-trade workshop", update, draw)
}
