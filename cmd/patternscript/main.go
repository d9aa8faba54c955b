// Command patternscript is the thin CLI driver: it reads a source file
// and streams interpreter output to standard output.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"patternscript/internal/patternscript"
)

func main() {
	args := os.Args[1:]
	verbose := false
	var filename string
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			verbose = true
			continue
		}
		filename = a
	}

	if filename == "" {
		fmt.Fprintln(os.Stderr, "usage: patternscript [-v] <file.ps>")
		os.Exit(2)
	}

	runID := uuid.New().String()
	start := time.Now()

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "reading %s", filename))
		os.Exit(1)
	}

	if verbose {
		logTrace(runID, "loaded %s (%s)", filename, humanize.Bytes(uint64(len(source))))
	}

	result, diagErr := patternscript.Run(string(source))
	if diagErr != nil {
		if verbose {
			logTrace(runID, "failed after %s", time.Since(start))
		}
		if verbose {
			fmt.Fprintln(os.Stderr, diagErr.Render())
		} else {
			fmt.Fprintln(os.Stderr, diagErr.Error())
		}
		os.Exit(1)
	}

	for _, line := range result.Output {
		fmt.Println(line)
	}

	if verbose {
		logTrace(runID, "completed in %s, %s lines emitted",
			time.Since(start), humanize.Comma(int64(len(result.Output))))
	}
}

func logTrace(runID, format string, args ...interface{}) {
	prefix := fmt.Sprintf("[%s] ", runID[:8])
	if isatty.IsTerminal(os.Stderr.Fd()) {
		prefix = "\x1b[2m" + prefix + "\x1b[0m"
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
