// Package mailto builds the share link that hands a practice script to the
// user's mail client.
package mailto

import (
	"net/url"
	"strings"
)

// DefaultShareURL is the public page advertised in the email footer.
const DefaultShareURL = "https://couples-conversation-starter-509696992737.us-west1.run.app/"

// Build returns mailto:<email>?subject=..&body=.. with subject and body
// percent-encoded as URI components. email is embedded as-is; callers must
// not call Build with an empty address.
func Build(email, subject, body string) string {
	var b strings.Builder
	b.WriteString("mailto:")
	b.WriteString(email)
	b.WriteString("?subject=")
	b.WriteString(EncodeComponent(subject))
	b.WriteString("&body=")
	b.WriteString(EncodeComponent(body))
	return b.String()
}

// EncodeComponent escapes s the way a browser's encodeURIComponent does.
// Spaces become %20, never '+', so mail clients that do not treat '+' as
// a space still show the text correctly.
func EncodeComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	// QueryEscape encodes these but encodeURIComponent leaves them alone.
	for enc, raw := range map[string]string{
		"%21": "!", "%27": "'", "%28": "(", "%29": ")", "%2A": "*",
	} {
		escaped = strings.ReplaceAll(escaped, enc, raw)
	}
	return escaped
}

// Subject is the email subject line for topic.
func Subject(topic string) string {
	return "Conversation Practice: " + topic
}

// Body appends the attribution footer to the script.
func Body(script, shareURL string) string {
	if shareURL == "" {
		shareURL = DefaultShareURL
	}
	return script + "\n\n---\n\nCreate your own practice conversation at Conversation Connect:\n" + shareURL
}
