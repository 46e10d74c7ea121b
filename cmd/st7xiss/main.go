// Command st7xiss is the CLI frontend: it parses startup flags, loads a
// firmware image and optional snapshot, and drops into the interactive
// monitor loop — the teacher's single `package main` entrypoint split
// into a thin shell over the simulator's library packages.
package main

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tagsim/st7xiss/addr"
	"github.com/tagsim/st7xiss/breakpoint"
	"github.com/tagsim/st7xiss/cpu"
	"github.com/tagsim/st7xiss/decode"
	"github.com/tagsim/st7xiss/hostterm"
	"github.com/tagsim/st7xiss/loader"
	"github.com/tagsim/st7xiss/luascript"
	"github.com/tagsim/st7xiss/monitor"
	"github.com/tagsim/st7xiss/peripheral"
	"github.com/tagsim/st7xiss/runloop"
	"github.com/tagsim/st7xiss/snapshot"
)

func main() {
	app := &cli.App{
		Name:  "st7xiss",
		Usage: "ST7/ST8 secure-tag firmware instruction-set simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rom0", Usage: "S-record or raw binary image for code page 0"},
			&cli.StringFlag{Name: "rom1", Usage: "raw binary image for code page 1 (S-record input always loads into page 0)"},
			&cli.StringFlag{Name: "flash", Usage: "flash-text image (whitespace-separated hex pairs)"},
			&cli.StringFlag{Name: "snapshot", Usage: "snapshot bundle directory to load at startup"},
			&cli.StringFlag{Name: "script", Usage: "Lua script to run instead of an interactive REPL"},
			&cli.StringFlag{Name: "basedir", Usage: "base directory file loads are confined to", Value: "."},
			&cli.Uint64Flag{Name: "origin", Usage: "raw-binary load origin override for --rom1", Value: 0},
			&cli.BoolFlag{Name: "raw", Usage: "treat --rom0/--rom1 as raw binary instead of S-record"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "st7xiss:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	baseDir := c.String("basedir")
	space := addr.NewSpace()
	bus := peripheral.New(rand.Reader)
	access := addr.NewAccess(space, bus)
	machine := cpu.New()
	exec := decode.NewExecutor(machine, access)
	bp := breakpoint.NewEngine()
	access.OnAccess = bp.DataWatch()
	rl := runloop.New(machine, access, exec, bp)

	if err := loadImages(c, baseDir, space); err != nil {
		return err
	}
	if dir := c.String("snapshot"); dir != "" {
		regs, err := snapshot.Load(dir, space)
		if err != nil {
			return fmt.Errorf("st7xiss: %w", err)
		}
		regs.Apply(machine)
	}

	mon := monitor.New(machine, space, access, exec, rl, bp, os.Stdout)
	mon.BaseDir = baseDir

	term := hostterm.New()
	if err := term.Start(); err == nil {
		defer term.Stop()
		mon.Interrupt = term.Interrupted
	}
	// A non-interactive terminal (e.g. under a script runner) can't be
	// put into raw mode; mon.Interrupt stays nil and g/u simply run to
	// completion without a user-break path, which is fine for --script.

	script := luascript.New(mon)
	defer script.Close()
	mon.Scripts = script

	if path := c.String("script"); path != "" {
		return script.RunFile(path)
	}
	return repl(mon)
}

func loadImages(c *cli.Context, baseDir string, space *addr.Space) error {
	if path := c.String("rom0"); path != "" {
		data, err := loader.ReadFile(baseDir, path)
		if err != nil {
			return fmt.Errorf("st7xiss: rom0: %w", err)
		}
		if c.Bool("raw") {
			err = loader.LoadRawBinary(space, 0, loader.DefaultOriginPage0, data)
		} else {
			err = loader.LoadSRecord(space, data)
		}
		if err != nil {
			return fmt.Errorf("st7xiss: rom0: %w", err)
		}
	}
	if path := c.String("rom1"); path != "" {
		data, err := loader.ReadFile(baseDir, path)
		if err != nil {
			return fmt.Errorf("st7xiss: rom1: %w", err)
		}
		if c.Bool("raw") {
			origin := uint16(loader.DefaultOriginPage1Low)
			if v := c.Uint64("origin"); v != 0 {
				origin = uint16(v)
			}
			err = loader.LoadRawBinary(space, 1, origin, data)
		} else {
			err = loader.LoadSRecord(space, data)
		}
		if err != nil {
			return fmt.Errorf("st7xiss: rom1: %w", err)
		}
	}
	if path := c.String("flash"); path != "" {
		data, err := loader.ReadFile(baseDir, path)
		if err != nil {
			return fmt.Errorf("st7xiss: flash: %w", err)
		}
		if err := loader.LoadFlashText(space, data); err != nil {
			return fmt.Errorf("st7xiss: flash: %w", err)
		}
	}
	return nil
}

// repl is the interactive command loop: a prompt, one Dispatch call per
// line, exit on "x" or EOF.
func repl(mon *monitor.Monitor) error {
	fmt.Fprintln(os.Stdout, "st7xiss monitor — type ? for help, x to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, filepath.Base(os.Args[0])+"> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if mon.Dispatch(line) {
			return nil
		}
	}
}
