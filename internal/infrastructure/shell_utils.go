package infrastructure

import "strings"

// shellSpecialChars have meaning to a POSIX shell and force quoting
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellQuote quotes one argument for display in a log line. It is never
// used to build a command; subprocesses receive their argv directly.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// FormatCommand renders a binary and its arguments as a copy-pasteable
// shell line for logs
func FormatCommand(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(ShellQuote(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(ShellQuote(arg))
	}
	return b.String()
}
