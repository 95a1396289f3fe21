package roster

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces the five markup-significant characters with named
// entities, so user data can be placed in element bodies and quoted attributes.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
