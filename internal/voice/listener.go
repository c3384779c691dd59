package voice

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var ErrNotUnderstood = errors.New("could not understand audio")

// Listener reads one transcript per line, e.g. from a speech-to-text
// program piped into stdin.
type Listener struct {
	scanner *bufio.Scanner
}

func NewListener(r io.Reader) *Listener {
	return &Listener{scanner: bufio.NewScanner(r)}
}

// Listen returns the next transcript. A blank line is ErrNotUnderstood and
// the end of input is io.EOF.
func (l *Listener) Listen() (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	text := strings.TrimSpace(l.scanner.Text())
	if text == "" {
		return "", ErrNotUnderstood
	}
	return text, nil
}
