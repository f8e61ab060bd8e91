package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"hydro/pkg/compiler"
	"hydro/pkg/cpu"
)

const (
	historyFile = ".hydro_history"
	promptMain  = ">> "
	promptCont  = ".. "
	maxSteps    = 10_000_000
)

const banner = "hydro REPL\nEach submission compiles and runs as a full program.\nCtrl+D exits. Type :help for commands."

const helpText = `REPL commands:
  :asm     Toggle printing the generated assembly
  :help    Show this help
  :quit    Exit the REPL
`

// braceBalance counts unmatched '{' in the buffered input so multi-line
// scopes can be entered naturally.
func braceBalance(src string) int {
	depth := 0
	for _, r := range src {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

// readProgram collects lines until the braces balance, switching to the
// continuation prompt for open scopes. Returns ok=false on EOF.
func readProgram(ln *liner.State) (string, bool) {
	var buf strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return "", true
			}
			return "", false
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		if braceBalance(buf.String()) <= 0 {
			return buf.String(), true
		}
		prompt = promptCont
	}
}

func evaluate(src string, showAsm bool) {
	assembly, machineCode, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if showAsm {
		fmt.Print(assembly)
	}
	machine := cpu.New()
	machine.LoadProgram(machineCode)
	if !machine.RunFor(maxSteps) {
		fmt.Fprintln(os.Stderr, "program did not halt within step limit")
		return
	}
	fmt.Printf("exit status %d\n", machine.ExitStatus())
}

func main() {
	histPath := historyFile
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println(banner)

	showAsm := false
	for {
		src, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return
			case ":help":
				fmt.Print(helpText)
			case ":asm":
				showAsm = !showAsm
				if showAsm {
					fmt.Println("assembly output on")
				} else {
					fmt.Println("assembly output off")
				}
			default:
				fmt.Println("unknown command. Type :help for commands.")
			}
			continue
		}

		evaluate(src, showAsm)
	}
}
