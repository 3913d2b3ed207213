// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal wraps the few terminal operations the CLI needs: reading a secret
// without echo and erasing a prompt once it has been answered.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

const fallbackWidth = 80

// Width returns the terminal width, or 80 when stdout is not a terminal.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return fallbackWidth
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// lines returns how many rows textLength characters occupy at the given width.
func lines(textLength, width int) int {
	if width <= 0 {
		width = fallbackWidth
	}
	n := (textLength + width - 1) / width
	if n < 1 {
		n = 1
	}
	return n
}

// ClearPreviousLines erases text that was printed and answered with Enter. The cursor is
// on the empty line below the answer; it ends at the start of the first erased line.
func ClearPreviousLines(textLength int) {
	cursor.ClearLine()
	cursor.ClearLinesUp(lines(textLength, Width()))
	cursor.StartOfLine()
}

// Prompt prints prompt and reads one line. On a terminal the answer is read without
// echo when hidden is set; an echoed answer is erased together with the prompt.
func Prompt(prompt string, hidden bool) (string, error) {
	fmt.Print(prompt)
	if !IsInteractive() {
		return readLine(os.Stdin)
	}
	if hidden {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		cursor.StartOfLine()
		cursor.ClearLine()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	answer, err := readLine(os.Stdin)
	ClearPreviousLines(len(prompt) + len(answer))
	return answer, err
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
