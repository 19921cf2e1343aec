package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/chip8"
	"github.com/tuboc/chip8vm/config"
	"github.com/tuboc/chip8vm/emulator"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := opts.Logger()
	if err := run(app.Context(), logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Emulation cancelled")
			return
		}
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}

func parseFlags(args []string) (config.Options, error) {
	flags := flag.NewFlagSet("chip8vm", flag.ContinueOnError)
	configFile := flags.String("c", "", "TOML config file")
	filename := flags.String("f", "", "chip8 image file path")
	stepMode := flags.Bool("s", false, "start with stepMode")
	headless := flags.Bool("headless", false, "run without a window and print the screen when done")
	cycles := flags.Int("cycles", 1000, "number of cycles to run in headless mode")
	scale := flags.Int("scale", 0, "window pixels per emulated pixel")
	schip := flags.Bool("schip", false, "use the 128x64 Super-CHIP display")
	wrap := flags.Bool("wrap", false, "wrap sprites around the screen edges")
	panel := flags.Bool("panel", false, "show the debug panel")
	debug := flags.Bool("debug", false, "enable debug logging")
	quiet := flags.Bool("q", false, "only log errors")

	if err := flags.Parse(args); err != nil {
		return config.Options{}, err
	}
	if *filename == "" && flags.NArg() > 0 {
		*filename = flags.Arg(0)
	}
	if *filename == "" {
		flags.Usage()
		return config.Options{}, errors.New("no rom file given")
	}

	opts, err := config.Load(*configFile)
	if err != nil {
		return opts, err
	}

	// flags override the config file
	opts.Rom = *filename
	opts.StepMode = *stepMode
	opts.Headless = *headless
	opts.Cycles = *cycles
	opts.Debug = *debug
	opts.Quiet = *quiet
	if *scale > 0 {
		opts.Scale = *scale
	}
	opts.SuperChip = opts.SuperChip || *schip
	opts.SpriteWrap = opts.SpriteWrap || *wrap
	opts.DebugPanel = opts.DebugPanel || *panel
	return opts, opts.Validate()
}

func run(ctx context.Context, logger *log.Logger, opts config.Options) error {
	rom, err := os.ReadFile(opts.Rom)
	if err != nil {
		return fmt.Errorf("%w: %v", chip8.ErrRomLoad, err)
	}
	logger.Info("Loading rom", log.String("file", opts.Rom))

	if opts.Headless {
		return runHeadless(ctx, logger, rom, opts)
	}

	emu, err := emulator.NewEmulator(rom, opts, logger)
	if err != nil {
		return err
	}
	defer emu.Close()
	return emu.Run(ctx)
}

func runHeadless(ctx context.Context, logger *log.Logger, rom []byte, opts config.Options) error {
	m, err := chip8.NewMachine(bytes.NewReader(rom),
		chip8.WithLogger(logger),
		chip8.WithDisplayMode(opts.DisplayMode()),
		chip8.WithSpriteWrap(opts.SpriteWrap),
		chip8.WithTimerRate(opts.TimerRate),
		chip8.WithTraceDepth(opts.TraceDepth))
	if err != nil {
		return err
	}

	screen := &chip8.HeadlessScreen{}
	if err := m.Run(ctx, screen, chip8.NewScriptedInput(opts.Cycles)); err != nil {
		return err
	}
	logger.Debug("Headless run finished", log.Int("frames", screen.Frames))
	return chip8.DumpDisplay(os.Stdout, m.Display())
}
