package winsvc

import "strings"

// Characters that force an argument to be quoted. Backslashes on their
// own never do; they only need doubling in front of a quote.
const argEscapeChars = " \t\n\v\""

// EscapeArg quotes a single launch argument so that the Windows
// command-line tokenizer (CommandLineToArgvW and the C runtime parser)
// reproduces the original exactly. Arguments without whitespace or
// quotes pass through unchanged.
func EscapeArg(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, argEscapeChars) {
		return arg
	}

	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for i := 0; i < len(arg); {
		slashes := 0
		for i < len(arg) && arg[i] == '\\' {
			slashes++
			i++
		}
		switch {
		case i == len(arg):
			// Trailing backslashes would escape the closing quote.
			writeSlashes(&b, 2*slashes)
		case arg[i] == '"':
			writeSlashes(&b, 2*slashes+1)
			b.WriteByte('"')
			i++
		default:
			writeSlashes(&b, slashes)
			b.WriteByte(arg[i])
			i++
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeSlashes(b *strings.Builder, n int) {
	for ; n > 0; n-- {
		b.WriteByte('\\')
	}
}

// composeCommandLine joins pre-escaped arguments into a single launch
// command.
func composeCommandLine(args []string) string {
	escaped := make([]string, len(args))
	for i, arg := range args {
		escaped[i] = EscapeArg(arg)
	}
	return strings.Join(escaped, " ")
}
