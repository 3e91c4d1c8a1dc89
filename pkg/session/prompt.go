package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter talks to the operator during login
type Prompter interface {
	// ReadLine shows prompt and returns one trimmed line
	ReadLine(prompt string) (string, error)
	// ReadSecret is ReadLine without echo when possible
	ReadSecret(prompt string) (string, error)
	// Notify shows a message that needs no answer
	Notify(msg string)
}

// TerminalPrompter reads from a file or reader and writes prompts to out
type TerminalPrompter struct {
	reader *bufio.Reader
	out    io.Writer
	fd     int
}

// NewTerminalPrompter prompts on stdin/stderr, hiding secrets when stdin is a terminal
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stderr,
		fd:     int(os.Stdin.Fd()),
	}
}

// NewLinePrompter reads plain lines from in; secrets are echoed
func NewLinePrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		reader: bufio.NewReader(in),
		out:    out,
		fd:     -1,
	}
}

// ReadLine shows prompt and reads up to the next newline
func (p *TerminalPrompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads without echo when attached to a terminal
func (p *TerminalPrompter) ReadSecret(prompt string) (string, error) {
	if p.fd < 0 || !term.IsTerminal(p.fd) {
		return p.ReadLine(prompt)
	}

	fmt.Fprint(p.out, prompt)
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// Notify writes msg on its own line
func (p *TerminalPrompter) Notify(msg string) {
	fmt.Fprintln(p.out, msg)
}

// ScriptedPrompter answers prompts from a fixed list, for tests and automation
type ScriptedPrompter struct {
	Answers  []string
	Prompts  []string
	Messages []string
}

// ReadLine returns the next scripted answer
func (s *ScriptedPrompter) ReadLine(prompt string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Answers) == 0 {
		return "", io.EOF
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return strings.TrimSpace(answer), nil
}

// ReadSecret returns the next scripted answer
func (s *ScriptedPrompter) ReadSecret(prompt string) (string, error) {
	return s.ReadLine(prompt)
}

// Notify records msg
func (s *ScriptedPrompter) Notify(msg string) {
	s.Messages = append(s.Messages, msg)
}
