package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Senior Go fejlesztő", "Senior Go fejlesztő"},
		{"  Budapest,\n\n   XIII. kerület  ", "Budapest, XIII. kerület"},
		{"a\tb\r\nc", "a b c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), "input %q", tt.in)
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{
		"  Szoftverfejlesztő \n (Go)  ",
		"fejlesztó",
		"már tiszta szöveg",
	}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once))
	}
}

func TestCleanTextPtr(t *testing.T) {
	assert.Nil(t, CleanTextPtr(" \n "))
	got := CleanTextPtr(" Debrecen ")
	if assert.NotNil(t, got) {
		assert.Equal(t, "Debrecen", *got)
	}
}
