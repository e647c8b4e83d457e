package platform

import "strings"

// Conventional commit types.
const (
	CommitTypeFeat     = "feat"
	CommitTypeFix      = "fix"
	CommitTypeDocs     = "docs"
	CommitTypeStyle    = "style"
	CommitTypeRefactor = "refactor"
	CommitTypePerf     = "perf"
	CommitTypeTest     = "test"
	CommitTypeChore    = "chore"
)

// Footer is appended to every generated commit message.
const Footer = "Powered-by: Shadow"

// FormatChangeReason builds a conventional commit message:
// "type(scope): subject", an optional body and the footer.
func FormatChangeReason(ctype, scope, subject, body string) string {
	var b strings.Builder
	b.WriteString(ctype)
	if scope != "" {
		b.WriteString("(" + scope + ")")
	}
	b.WriteString(": " + subject)
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString("\n\n" + body)
	}
	return AppendFooter(b.String())
}

// AppendFooter adds the footer to msg unless it is already there.
func AppendFooter(msg string) string {
	msg = strings.TrimRight(msg, "\n")
	if strings.HasSuffix(msg, Footer) {
		return msg
	}
	return msg + "\n\n" + Footer
}
