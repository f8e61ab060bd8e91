package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hydro/pkg/compiler"
	"hydro/pkg/cpu"
)

const maxSteps = 10_000_000

// defaultAsmPath swaps the source file's extension for .asm.
func defaultAsmPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".asm"
}

// exitCode maps a program's 16-bit exit status onto a process exit code.
// POSIX exit codes carry 8 bits, so the status is truncated to its low byte.
func exitCode(status uint16) int {
	return int(status & 0xFF)
}

func main() {
	outPath := flag.String("o", "", "write generated assembly to this file (default: input with .asm)")
	binPath := flag.String("bin", "", "write machine code image to this file")
	run := flag.Bool("run", false, "run the compiled program and exit with its status")
	dumpTokens := flag.Bool("dump-tokens", false, "print the token stream and stop")
	dumpAST := flag.Bool("dump-ast", false, "print the parsed AST and stop")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hydroc [flags] <source file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read error:", err)
		os.Exit(1)
	}
	src := string(data)

	if *dumpTokens {
		tokens, err := compiler.Lex(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "lex error:", err)
			os.Exit(1)
		}
		for _, tok := range tokens {
			fmt.Println(tok)
		}
		return
	}

	if *dumpAST {
		tokens, err := compiler.Lex(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "lex error:", err)
			os.Exit(1)
		}
		prog, err := compiler.Parse(tokens, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse error:", err)
			os.Exit(1)
		}
		fmt.Print(prog)
		return
	}

	assembly, machineCode, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *outPath == "" {
		*outPath = defaultAsmPath(flag.Arg(0))
	}
	if err := os.WriteFile(*outPath, []byte(assembly), 0644); err != nil {
		fmt.Fprintln(os.Stderr, "write error:", err)
		os.Exit(1)
	}
	if *binPath != "" {
		if err := os.WriteFile(*binPath, machineCode, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "write error:", err)
			os.Exit(1)
		}
	}

	if *run {
		machine := cpu.New()
		machine.LoadProgram(machineCode)
		if !machine.RunFor(maxSteps) {
			fmt.Fprintln(os.Stderr, "program did not halt within step limit")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "exit status %d\n", machine.ExitStatus())
		os.Exit(exitCode(machine.ExitStatus()))
	}
}
