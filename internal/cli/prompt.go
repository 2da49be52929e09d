package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// Prompter reads interactive input. Regular prompts get line editing;
// secrets are read with echo disabled when stdin is a terminal.
type Prompter struct {
	line *liner.State
}

// NewPrompter sets up terminal input. Close must be called to restore
// the terminal state.
func NewPrompter() *Prompter {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return &Prompter{line: l}
}

// Close restores the terminal.
func (p *Prompter) Close() {
	if p.line != nil {
		p.line.Close()
	}
}

// Ask reads one line of input.
func (p *Prompter) Ask(label string) (string, error) {
	text, err := p.line.Prompt(label)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// AskSecret reads a line without echoing it.
func (p *Prompter) AskSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input, e.g. in scripts: read a plain line.
		reader := bufio.NewReader(os.Stdin)
		text, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(text), nil
	}

	fmt.Fprint(os.Stderr, label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
