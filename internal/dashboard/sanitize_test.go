package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"tab expansion", "a\tb", "a    b"},
		{"escape sequence stripped", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"bell and backspace dropped", "ding\a\bdong", "dingdong"},
		{"del dropped", "a\x7fb", "ab"},
		{"multibyte passes through", "résumé ✓", "résumé ✓"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitize(tc.in))
		})
	}
}
