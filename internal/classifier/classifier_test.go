package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleFor(t *testing.T) {
	tests := []struct {
		name string
		want Style
	}{
		{"Backend Development", Style{"💻", "blue"}},
		{"UI DESIGN", Style{"🎨", "purple"}},
		{"Market Research", Style{"🔍", "green"}},
		{"Security Hardening", Style{"🔒", DefaultColor}},
		{"Docs & Documentation", Style{"📝", "gray"}},
		{"Errands", Style{DefaultIcon, DefaultColor}},
		{"", Style{DefaultIcon, DefaultColor}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StyleFor(tt.name))
		})
	}
}
