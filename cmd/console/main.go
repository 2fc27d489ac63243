// Command console runs a CHIP-8 ROM headless and dumps the display as text.
// It is useful for exercising ROMs in scripts and for debugging programs
// whose faults are hard to catch inside the desktop front end.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"

	"chip8go/pkg/asm"
	"chip8go/pkg/chip8"
	"chip8go/pkg/config"
	"chip8go/pkg/utils"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	configFile := flag.String("config", config.DefaultFile, "settings file to load")
	frames := flag.Int("frames", 60, "number of display frames to run before dumping the screen")
	trace := flag.Bool("trace", false, "log every executed instruction")
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("quiet", false, "only log errors")
	flag.Parse()

	logger := config.CreateLogger(*debug, *quiet)

	romPath := flag.Arg(0)
	if romPath == "" {
		logger.Info("chip8go console", log.String("version", buildinfo.Version(version, commit, date)))
		fmt.Fprintf(os.Stderr, "usage: %s [options] <rom.ch8>\n\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(logger, *configFile, romPath, *frames, *trace); err != nil {
		logger.Fatal(err.Error())
	}
}

func run(logger *log.Logger, configFile, romPath string, frames int, trace bool) error {
	ctx := app.Context()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	program, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM %q: %w", romPath, err)
	}

	vm, err := chip8.New(cfg.Chip8.VMSettings(), program)
	if err != nil {
		return fmt.Errorf("loading ROM %q: %w", romPath, err)
	}

	logger.Info("Running ROM",
		log.String("rom", utils.ProgramName(romPath)),
		log.Int("bytes", len(program)),
		log.Int("frames", frames))

	cycles := 0
	for frame := 0; frame < frames; {
		select {
		case <-ctx.Done():
			logger.Info("Operation cancelled")
			return nil
		default:
		}

		res, err := vm.Cycle(time.Now())
		if err != nil {
			fmt.Print(vm.RenderASCII('#', '.'))
			return fmt.Errorf("after %d cycles: %w", cycles, err)
		}
		cycles++

		if trace && !res.Deferred {
			logger.Info("Executed",
				log.String("instruction", asm.Disassemble(res.Opcode)),
				log.String("cost", res.Cost.String()))
		}

		if vm.DrawFlag {
			vm.DrawFlag = false
			frame++
		}
	}

	fmt.Print(vm.RenderASCII('#', '.'))
	logger.Info("Done", log.Int("cycles", cycles))
	return nil
}
