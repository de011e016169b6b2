package types

import (
	"net/url"
	"strings"
)

// componentUnescaper restores the characters a URI component leaves literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// MailtoURI renders the message as a mailto: link with percent-encoded subject and body.
func (m Message) MailtoURI() string {
	return "mailto:" + m.To + "?subject=" + encodeComponent(m.Subject) + "&body=" + encodeComponent(m.Body)
}

// encodeComponent escapes s as a URI component. Spaces become %20, never '+'.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
