package auth

import "github.com/oshokin/alarm-ack/internal/prompt"

// script answers prompts from a fixed list of lines.
type script struct {
	// lines are returned in order; ErrNoInput once exhausted.
	lines []string
}

func newScript(lines ...string) *script {
	return &script{lines: lines}
}

func (s *script) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", prompt.ErrNoInput
	}

	line := s.lines[0]
	s.lines = s.lines[1:]

	return line, nil
}

func (s *script) ReadSecret(p string) (string, error) {
	return s.ReadLine(p)
}
