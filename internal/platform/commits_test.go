package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatChangeReason(t *testing.T) {
	tests := []struct {
		name                         string
		ctype, scope, subject, body string
		want                         string
	}{
		{
			name:  "full",
			ctype: CommitTypeChore, scope: "shadow", subject: "populate hidden fields", body: "12 documents",
			want: "chore(shadow): populate hidden fields\n\n12 documents\n\n" + Footer,
		},
		{
			name:  "no scope no body",
			ctype: CommitTypeFix, subject: "repair index",
			want: "fix: repair index\n\n" + Footer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatChangeReason(tt.ctype, tt.scope, tt.subject, tt.body))
		})
	}
}

func TestAppendFooter(t *testing.T) {
	msg := AppendFooter("update doc\n")
	assert.Equal(t, "update doc\n\n"+Footer, msg)
	assert.Equal(t, msg, AppendFooter(msg), "footer is added once")
}
