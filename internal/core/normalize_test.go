package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "domestic trunk prefix", input: "8 (916) 123-45-67", want: "79161234567"},
		{name: "international prefix", input: "0049 30 1234567", want: "49301234567"},
		{name: "plus sign and spaces", input: "+7 916 123 45 67", want: "79161234567"},
		{name: "bare domestic", input: "89161234567", want: "79161234567"},
		{name: "ten digits starting with 8 kept", input: "8916123456", want: "8916123456"},
		{name: "twelve digits starting with 8 kept", input: "891612345678", want: "891612345678"},
		{name: "prefix stripped after trunk check", input: "0079161234567", want: "79161234567"},
		{name: "eleven digits starting with 00", input: "00812345678", want: "812345678"},
		{name: "empty", input: "", want: ""},
		{name: "no digits", input: "call me", want: ""},
		{name: "non-ASCII digits dropped", input: "٣٣٣", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizePhone_DigitsOnly(t *testing.T) {
	inputs := []string{"+1 (555) 010-9999", "tel: 8-800-555-35-35 ext. 12", "ab\x00c", "00", "８９"}
	for _, in := range inputs {
		out := NormalizePhone(in)
		for _, c := range out {
			assert.True(t, c >= '0' && c <= '9', "NormalizePhone(%q) = %q contains %q", in, out, c)
		}
	}
}
