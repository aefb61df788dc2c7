package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
)

// confirmer asks on the terminal before destructive actions
type confirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newConfirmer(in io.Reader, out io.Writer, yes bool) collection.Confirmer {
	return &confirmer{in: bufio.NewReader(in), out: out, yes: yes}
}

// Confirm returns true for y or yes; anything else, including EOF, declines
func (c *confirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.yes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	answer, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptInput("")
	}
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}
