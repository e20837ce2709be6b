package main

import (
	"fmt"
	"io"
	"strings"
)

// confirm asks a yes/no question and reports whether the answer was yes.
// Anything but y or yes, including end of input, means no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, ok := readLine(in)
	if !ok {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine reads up to and excluding the next newline one byte at a time, so
// later prompts on the same reader see the following lines.
func readLine(in io.Reader) (string, bool) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return sb.String(), true
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return sb.String(), sb.Len() > 0
		}
	}
}
