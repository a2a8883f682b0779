package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive means a value was missing and stdin is not a terminal.
var ErrNotInteractive = errors.New("input required but stdin is not a terminal")

// Prompter asks questions on out and reads one line per answer from in.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewPrompter returns a Prompter. Prompts are refused unless interactive.
func NewPrompter(in io.Reader, out io.Writer, interactive bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// StdinIsTerminal reports whether os.Stdin is attached to a terminal.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Ask prints question and returns the trimmed answer. An empty answer is
// asked again.
func (p *Prompter) Ask(question string) (string, error) {
	if !p.interactive {
		return "", fmt.Errorf("%w: %s", ErrNotInteractive, strings.TrimSuffix(question, "?"))
	}

	for {
		fmt.Fprintf(p.out, "%s ", question)
		line, err := p.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer != "" {
			return answer, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("reading answer to %q: %w", question, io.ErrUnexpectedEOF)
			}
			return "", fmt.Errorf("reading answer to %q: %w", question, err)
		}
	}
}
