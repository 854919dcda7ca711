package scanner

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ansiColor maps each PageState to the colour the original console.py
// assigns it (PageState.UNSEEN = "red", SEEN = "yellow", SENT = "green").
var ansiColor = map[PageState]string{
	Unseen: "\x1b[31m",
	Seen:   "\x1b[33m",
	Sent:   "\x1b[32m",
}

const ansiReset = "\x1b[0m"

// Console drives the scanner's interactive operator shell: it prompts for
// a batch anchor, then scans repeatedly until the operator declines,
// printing a colour-coded page-state table after every scan.
type Console struct {
	in       *bufio.Scanner
	out      io.Writer
	colorize bool
	capturer capturer
	state    *State
	sink     Sink
}

// NewConsole builds a Console. colorFd is checked with term.IsTerminal so
// piped or redirected sessions fall back to plain text instead of raw
// escape codes.
func NewConsole(in io.Reader, out io.Writer, colorFd int, capDev capturer, state *State, sink Sink) *Console {
	return &Console{
		in:       bufio.NewScanner(in),
		out:      out,
		colorize: term.IsTerminal(colorFd),
		capturer: capDev,
		state:    state,
		sink:     sink,
	}
}

// Run prompts for an anchor, scans until the operator declines to
// continue, and returns after the last "no" answer or on EOF.
func (c *Console) Run() error {
	for {
		anchor, err := c.promptAnchor()
		if err != nil {
			return err
		}

		for {
			_, drained, err := ScanOnce(c.capturer, c.state, anchor, c.sink)
			if err != nil {
				if Recoverable(err) {
					fmt.Fprintf(c.out, "scan failed, retry: %v\n", err)
					slog.Warn("recoverable scan failure", "err", err)
					if !c.promptYesNo("Scan again?") {
						break
					}
					continue
				}
				return err
			}

			c.printStates(anchor)
			if drained {
				fmt.Fprintln(c.out, "drained contiguous run to sink")
			}

			if !c.promptYesNo("Scan another page?") {
				break
			}
		}

		if !c.promptYesNo("Start a new batch?") {
			return nil
		}
	}
}

func (c *Console) promptAnchor() (int, error) {
	for {
		fmt.Fprint(c.out, "Starting page number for this batch: ")
		if !c.in.Scan() {
			return 0, io.EOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(c.in.Text()))
		if err != nil || n < 0 {
			fmt.Fprintln(c.out, "enter a non-negative integer")
			continue
		}
		return n, nil
	}
}

func (c *Console) promptYesNo(question string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", question)
	if !c.in.Scan() {
		return false
	}
	ans := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return ans == "y" || ans == "yes"
}

func (c *Console) printStates(anchor int) {
	states := c.state.States(anchor)
	pages := make([]int, 0, len(states))
	for p := range states {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for _, p := range pages {
		st := states[p]
		if c.colorize {
			fmt.Fprintf(c.out, "page %d: %s%s%s\n", p, ansiColor[st], st, ansiReset)
		} else {
			fmt.Fprintf(c.out, "page %d: %s\n", p, st)
		}
	}
}
