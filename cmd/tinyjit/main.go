/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
/*
	tinyjit compiles a tiny Lisp dialect straight to x86-64 machine code
	and runs it in-process. No interpreter, no bytecode: every form
	becomes real instructions in a fresh mmap'd page before it runs once.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/dc0d/onexit"
	units "github.com/docker/go-units"
	"github.com/fsnotify/fsnotify"

	"github.com/launix-de/tinyjit/invoke"
)

const (
	newPrompt    = "\033[32m>\033[0m "
	resultPrompt = "\033[31m=\033[0m "
)

func main() {
	fmt.Print(`tinyjit Copyright (C) 2024-2026   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)

	var (
		file      = flag.String("file", "", "compile and run a single source file instead of starting the REPL")
		watch     = flag.Bool("watch", false, "with -file, recompile and rerun on every write to the file")
		heapSize  = flag.String("heap", "64KiB", "heap region size (docker/go-units syntax, e.g. 1MiB)")
		codeSize  = flag.String("code", "4KiB", "code region size (docker/go-units syntax)")
		dumpBytes = flag.Bool("dump-bytes", false, "hex-dump the emitted machine code and compile-unit id before running")
		addr      = flag.String("addr", ":8080", "listen address for the serve subcommand")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) > 0 && args[0] == "serve" {
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		serveAddr := serveCmd.String("addr", *addr, "listen address")
		serveCmd.Parse(args[1:])
		runServe(*serveAddr)
		return
	}

	heapCap, err := units.RAMInBytes(*heapSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyjit: bad -heap size: %v\n", err)
		os.Exit(1)
	}
	codeCap, err := units.RAMInBytes(*codeSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyjit: bad -code size: %v\n", err)
		os.Exit(1)
	}

	cfg := runConfig{
		codeCap:   int(codeCap),
		heapCap:   int(heapCap),
		dumpBytes: *dumpBytes,
	}

	if *file != "" {
		runFile(*file, cfg, *watch)
		return
	}
	repl(cfg)
}

type runConfig struct {
	codeCap   int
	heapCap   int
	dumpBytes bool
}

// runOnce compiles source once, runs it against a fresh heap, and
// prints the decoded result. Every allocated Unit is also handed to
// onexit as a safety net — if the process is interrupted between
// Compile and the explicit Close below, its mmap'd regions still get
// unmapped — but the normal path closes the Unit itself once RunOnce
// is done with it, so a long REPL or -watch session doesn't accumulate
// one live mmap pair per line/recompile.
func runOnce(source string, cfg runConfig) {
	unit, err := invoke.Compile(source, cfg.codeCap, cfg.heapCap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyjit: %s: %v\n", source, err)
		return
	}
	onexit.Register(func() { unit.Close() })
	defer unit.Close()

	if cfg.dumpBytes {
		fmt.Printf("unit %s: %x\n", unit.ID, unit.Code.Bytes())
	}

	raw := unit.RunOnce()
	fmt.Printf("%s %+v\n", resultPrompt, invoke.Decode(raw))
}

// runFile compiles and runs path once, then — if watch is set — again
// on every subsequent write, until the process is interrupted.
func runFile(path string, cfg runConfig, watch bool) {
	src, err := readFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyjit: %v\n", err)
		os.Exit(1)
	}
	runOnce(src, cfg)
	if !watch {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyjit: fsnotify: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		fmt.Fprintf(os.Stderr, "tinyjit: fsnotify: %v\n", err)
		os.Exit(1)
	}
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			src, err := readFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tinyjit: %v\n", err)
				continue
			}
			runOnce(src, cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "tinyjit: fsnotify: %v\n", err)
		}
	}
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// repl is an interactive line editor over readline: each completed
// line is compiled and run against a fresh Unit.
func repl(cfg runConfig) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            newPrompt,
		HistoryFile:       ".tinyjit-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		if line == "" {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("panic:", r)
				}
			}()
			runOnce(line, cfg)
		}()
	}
}
