package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when the input stream ends before an answer is read.
var ErrNoInput = errors.New("no input")

// noTerminal marks an input that is not attached to a TTY.
const noTerminal = -1

// Terminal reads prompted input from in and writes prompts to out.
type Terminal struct {
	// in buffers the input stream for line reads.
	in *bufio.Reader
	// out receives prompts and messages.
	out io.Writer
	// fd is the input file descriptor when it is a TTY, otherwise noTerminal.
	fd int
}

// NewTerminal wraps the given streams. Echo is only disabled for secrets when
// in is an *os.File attached to a terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	fd := noTerminal

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fd = int(file.Fd())
	}

	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
		fd:  fd,
	}
}

// Println writes a message line to the output.
func (t *Terminal) Println(args ...any) {
	_, _ = fmt.Fprintln(t.out, args...)
}

// ReadLine prints prompt and returns the next input line without its line ending.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(t.out, prompt)

	line, err := t.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}

		// A final line without newline still counts.
		if line == "" {
			return "", ErrNoInput
		}
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// ReadSecret prints prompt and reads a line without echo when possible.
func (t *Terminal) ReadSecret(prompt string) (string, error) {
	if t.fd == noTerminal {
		return t.ReadLine(prompt)
	}

	_, _ = fmt.Fprint(t.out, prompt)

	secret, err := term.ReadPassword(t.fd)

	// The newline typed by the user was not echoed.
	_, _ = fmt.Fprintln(t.out)

	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}

	return string(secret), nil
}
