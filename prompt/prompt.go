// Package prompt asks for missing values on an interactive terminal.
package prompt

import (
	"bufio"
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"golang.org/x/term"
	"io"
	"os"
	"strings"
)

// type Prompter reads answers from In after writing questions to Out.
type Prompter struct {
	In  *bufio.Reader
	Out io.Writer
	// ReadSecret reads a line without echoing it.
	ReadSecret func() (string, error)
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// New returns a *Prompter for the process's stdin and stdout.
func New() *Prompter {

	in := bufio.NewReader(os.Stdin)

	read_secret := func() (string, error) {

		b, err := term.ReadPassword(int(os.Stdin.Fd()))

		if err != nil {
			return "", err
		}

		return string(b), nil
	}

	return &Prompter{
		In:         in,
		Out:        os.Stdout,
		ReadSecret: read_secret,
	}
}

// String asks for label, returning default_value if the answer is empty.
func (p *Prompter) String(label string, default_value string) (string, error) {

	if default_value != "" {
		fmt.Fprintf(p.Out, "%s [%s]: ", label, default_value)
	} else {
		fmt.Fprintf(p.Out, "%s: ", label)
	}

	answer, err := p.readLine()

	if err != nil {
		return "", err
	}

	if answer == "" {
		return default_value, nil
	}

	return answer, nil
}

// Password asks for a secret without echoing it. Empty answers are rejected. If confirm is true the
// secret is asked for twice and both answers must match.
func (p *Prompter) Password(label string, confirm bool) (string, error) {

	for {

		fmt.Fprintf(p.Out, "%s: ", label)

		secret, err := p.readSecret()

		if err != nil {
			return "", err
		}

		if secret == "" {
			continue
		}

		if !confirm {
			return secret, nil
		}

		fmt.Fprint(p.Out, "Repeat for confirmation: ")

		again, err := p.readSecret()

		if err != nil {
			return "", err
		}

		if secret == again {
			return secret, nil
		}

		fmt.Fprintln(p.Out, "Error: The two entered values do not match.")
	}
}

func (p *Prompter) readSecret() (string, error) {

	if p.ReadSecret == nil {
		return p.readLine()
	}

	secret, err := p.ReadSecret()

	// The terminal swallows the newline
	fmt.Fprintln(p.Out)

	if err != nil {
		return "", fmt.Errorf("%w: failed to read password: %w", fieldusage.ErrMissingArgument, err)
	}

	return secret, nil
}

func (p *Prompter) readLine() (string, error) {

	line, err := p.In.ReadString('\n')

	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("%w: no answer given: %w", fieldusage.ErrMissingArgument, err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
