package winsvc

import (
	"reflect"
	"strings"
	"testing"
)

// retokenize splits a command line the way CommandLineToArgvW does, so
// quoting can be verified as a true round trip.
func retokenize(commandLine string) []string {
	var args []string
	i := 0
	for {
		for i < len(commandLine) && (commandLine[i] == ' ' || commandLine[i] == '\t') {
			i++
		}
		if i == len(commandLine) {
			return args
		}

		var b strings.Builder
		inQuotes := false
		for i < len(commandLine) {
			c := commandLine[i]
			if !inQuotes && (c == ' ' || c == '\t') {
				break
			}
			if c == '\\' {
				slashes := 0
				for i < len(commandLine) && commandLine[i] == '\\' {
					slashes++
					i++
				}
				if i < len(commandLine) && commandLine[i] == '"' {
					// 2n backslashes + quote -> n backslashes, quote is
					// special; odd count escapes the quote itself.
					for n := slashes / 2; n > 0; n-- {
						b.WriteByte('\\')
					}
					if slashes%2 == 1 {
						b.WriteByte('"')
						i++
					}
				} else {
					for ; slashes > 0; slashes-- {
						b.WriteByte('\\')
					}
				}
				continue
			}
			if c == '"' {
				inQuotes = !inQuotes
				i++
				continue
			}
			b.WriteByte(c)
			i++
		}
		args = append(args, b.String())
	}
}

func TestEscapeArgPassThrough(t *testing.T) {
	for _, arg := range []string{"--aaa=bbb-ccc", "C:\\plain\\path", "run"} {
		if got := EscapeArg(arg); got != arg {
			t.Errorf("EscapeArg(%q) = %q, want unchanged", arg, got)
		}
	}
}

func TestEscapeArgRoundTrip(t *testing.T) {
	args := []string{
		"",
		"plain",
		"has space",
		"linker=gcc -L/foo -Wl,bar",
		`--features="default"`,
		`with space and "quote"`,
		`\some\directory with\spaces\`,
		`trailing-slash\`,
		`two-trailing\\`,
		`\\server\share name\file`,
		"tab\tseparated",
		`"`,
		`\"`,
	}
	for _, arg := range args {
		quoted := EscapeArg(arg)
		got := retokenize(quoted)
		if len(got) != 1 || got[0] != arg {
			t.Errorf("EscapeArg(%q) = %q, retokenized to %q", arg, quoted, got)
		}
	}
}

func TestComposeCommandLine(t *testing.T) {
	args := []string{
		`C:\Program Files\svckit\svckit.exe`,
		"run",
		"-config",
		`C:\ProgramData\svckit\conf with "quotes".json`,
	}
	command := composeCommandLine(args)
	if got := retokenize(command); !reflect.DeepEqual(got, args) {
		t.Errorf("composeCommandLine round trip:\n command: %s\n got:  %q\n want: %q", command, got, args)
	}
}

func TestDescriptorLaunchCommand(t *testing.T) {
	d := Descriptor{
		ExecutablePath: `C:\Program Files\svckit\svckit.exe`,
		Arguments:      []string{"-config", `C:\conf\svckit.json`, "run"},
	}
	want := `"C:\Program Files\svckit\svckit.exe" -config C:\conf\svckit.json run`
	if got := d.launchCommand(); got != want {
		t.Errorf("launchCommand = %q, want %q", got, want)
	}
}
