package embed

import (
	"fmt"
	"strings"
	"time"
)

// attachmentScheme marks URLs that reference files co-delivered with a rich
// embed. They have no meaning as bare text and are suppressed on unwrap.
const attachmentScheme = "attachment://"

// compactFieldLimit is the longest rendered-name-plus-value a field may be
// and still join onto a single line. 78 keeps the compact form readable in
// narrow chat clients.
const compactFieldLimit = 78

// TimestampFormatter renders an absolute instant for the footer line.
type TimestampFormatter func(time.Time) string

// MarkerTimestamp is the default TimestampFormatter. It emits the
// platform-native absolute-instant token, which chat clients render in the
// reader's locale and timezone.
func MarkerTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:F>", t.Unix())
}

// Unwrapper renders a resolved document to a single plain-text block,
// preserving reading order. Rendering is a pure function of its inputs;
// an Unwrapper may be shared freely between goroutines.
type Unwrapper struct {
	escape          Escaper
	formatTimestamp TimestampFormatter
}

// NewUnwrapper creates an Unwrapper. Nil collaborators fall back to
// EscapeMarkdown and MarkerTimestamp.
func NewUnwrapper(escape Escaper, formatTimestamp TimestampFormatter) *Unwrapper {
	if escape == nil {
		escape = EscapeMarkdown
	}
	if formatTimestamp == nil {
		formatTimestamp = MarkerTimestamp
	}
	return &Unwrapper{escape: escape, formatTimestamp: formatTimestamp}
}

// Unwrap renders the document to text. Raw caller content, when present,
// leads the output verbatim; it is never re-escaped. Leaf text the embed
// supplies (title, author name, footer text) is escaped. Blank separator
// lines are only emitted after populated blocks and never doubled, and the
// output carries no leading or trailing blank line.
func (u *Unwrapper) Unwrap(doc *Document, content string) string {
	var lines []string
	if content != "" {
		lines = append(lines, content, "")
	}
	if title := doc.Resolve(Attr("title")).String(); title != "" {
		lines = append(lines, bold(u.escape(title)))
	}
	if url := doc.Resolve(Attr("url")).String(); url != "" {
		lines = append(lines, "> <"+url+">")
	}
	if name := doc.Resolve(Attr("author"), Attr("name")).String(); name != "" {
		lines = append(lines, italics(u.escape(name)))
	}
	if url := doc.Resolve(Attr("author"), Attr("url")).String(); url != "" {
		lines = append(lines, "<"+url+">")
	}
	lines = separate(lines)
	if url := doc.Resolve(Attr("thumbnail"), Attr("url")).String(); url != "" && !strings.HasPrefix(url, attachmentScheme) {
		lines = append(lines, "<"+url+">")
	}
	if description := doc.Resolve(Attr("description")).String(); description != "" {
		lines = append(lines, quote(description))
	}
	lines = separate(lines)
	for i := 0; i < doc.FieldCount(); i++ {
		inline := doc.Resolve(Attr("fields"), Index(i), Attr("inline")).Bool()
		name := doc.Resolve(Attr("fields"), Index(i), Attr("name")).String()
		value := doc.Resolve(Attr("fields"), Index(i), Attr("value")).String()
		name = bold(u.escape(name))
		if !inline ||
			len(name)+len(value) > compactFieldLimit ||
			strings.Contains(name, "\n") ||
			strings.Contains(value, "\n") {
			lines = append(lines, name, quote(value))
		} else {
			lines = append(lines, name+" | "+value)
		}
	}
	lines = separate(lines)
	if url := doc.Resolve(Attr("image"), Attr("url")).String(); url != "" && !strings.HasPrefix(url, attachmentScheme) {
		lines = append(lines, "<"+url+">")
	}
	text := doc.Resolve(Attr("footer"), Attr("text")).String()
	timestamp, hasTimestamp := doc.Resolve(Attr("timestamp")).Time()
	switch {
	case text != "" && hasTimestamp:
		lines = append(lines, u.escape(text)+" • "+u.formatTimestamp(timestamp))
	case text != "":
		lines = append(lines, u.escape(text))
	case hasTimestamp:
		lines = append(lines, u.formatTimestamp(timestamp))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return reformatLinks(strings.Join(lines, "\n"))
}

// separate appends a blank line after a populated block. Nothing is
// appended when the buffer is empty or already ends blank, which is what
// collapses consecutive separators.
func separate(lines []string) []string {
	if len(lines) > 0 && lines[len(lines)-1] != "" {
		return append(lines, "")
	}
	return lines
}
