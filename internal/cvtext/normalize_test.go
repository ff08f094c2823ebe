package cvtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "line endings and blank runs",
			in:   "Jane Doe\r\n\r\n\r\n\r\nExperience\rAcme",
			want: "Jane Doe\n\nExperience\nAcme",
		},
		{
			name: "non-breaking and repeated spaces",
			in:   "  Jane\u00a0 Doe \t Engineer\u00a0 ",
			want: "Jane Doe Engineer",
		},
		{
			name: "decomposed accents compose",
			in:   "Cafe\u0301 Ankara",
			want: "Caf\u00e9 Ankara",
		},
		{
			name: "zero width characters removed",
			in:   "Go\u200blang\ufeff",
			want: "Golang",
		},
		{
			name: "trailing spaces before blank lines",
			in:   "Summary   \n   \n  \n\nText",
			want: "Summary\n\nText",
		},
		{
			name: "empty",
			in:   " \r\n\t ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Jane Doe\r\n\r\n\r\nDENEY\u0130M\n\t\u2022 Go\u200b\n",
		"e\u200b\u0301 x",
		"  a \n\n\n\n b  \r\r\r c",
		"Özet\fKısa\vmetin",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
