package embed

import (
	"regexp"
	"strings"
)

// Escaper escapes markdown control characters in untrusted leaf text.
// Callers may substitute their platform's own implementation.
type Escaper func(string) string

var markdownReplacer = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`|`, `\|`,
)

// EscapeMarkdown is the default Escaper. It backslash-escapes the markdown
// characters chat clients render as formatting.
func EscapeMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}

func bold(s string) string {
	return "**" + s + "**"
}

func italics(s string) string {
	return "*" + s + "*"
}

// quote prefixes every line, blank lines included, so a block with internal
// blank lines still renders as a single quoted unit.
func quote(s string) string {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = "> " + p
	}
	return strings.Join(parts, "\n")
}

var linkMD = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)

// reformatLinks rewrites markdown links as "text (<url>)" so the target
// survives in plain text, where link syntax would otherwise render inline.
func reformatLinks(s string) string {
	return linkMD.ReplaceAllString(s, "$1 (<$2>)")
}
