package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chip8go/pkg/asm"
	"chip8go/pkg/chip8"
)

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output ROM file path (default: input with .ch8 extension)")
	disPath := flag.String("dis", "", "disassemble an existing ROM file to stdout")
	runProgram := flag.Bool("run", false, "run the assembled ROM headless and print the final screen")
	runCycles := flag.Int("cycles", 10000, "cycle cap when running with -run")
	flag.Parse()

	if *disPath != "" {
		program, err := os.ReadFile(*disPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read ROM file %q: %v\n", *disPath, err)
			os.Exit(1)
		}
		fmt.Print(asm.DisassembleProgram(program))
		return
	}

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble or -dis <file> to disassemble")
		flag.Usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	code, _, err := asm.Assemble(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
		os.Exit(1)
	}

	output := *outPath
	if output == "" {
		output = defaultOutputPath(*inPath)
	}

	if err := os.WriteFile(output, code, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write ROM file %q: %v\n", output, err)
		os.Exit(1)
	}

	fmt.Printf("assembled %d bytes -> %s\n", len(code), output)

	if *runProgram {
		if err := runROM(code, *runCycles); err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

func runROM(program []byte, cycles int) error {
	vm, err := chip8.New(chip8.DefaultSettings(), program)
	if err != nil {
		return err
	}

	for i := 0; i < cycles; i++ {
		if _, err := vm.Cycle(time.Now()); err != nil {
			fmt.Print(vm.RenderASCII('#', '.'))
			return fmt.Errorf("after %d cycles: %w", i, err)
		}
	}

	fmt.Print(vm.RenderASCII('#', '.'))
	fmt.Printf(
		"run complete: PC=0x%03X I=0x%03X V0=0x%02X V1=0x%02X V2=0x%02X V3=0x%02X\n",
		vm.PC, vm.I, vm.V[0], vm.V[1], vm.V[2], vm.V[3],
	)
	return nil
}
