package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFragments(t *testing.T) {
	tests := []struct {
		name  string
		frags []string
		want  []string
	}{
		{
			name:  "dangling preposition merged forward",
			frags: []string{"FILET DE", " POULET 5,99"},
			want:  []string{"FILET DE POULET 5,99"},
		},
		{
			name:  "short fragment merged forward",
			frags: []string{"LAIT", " DEMI ECREME 0,99"},
			want:  []string{"LAIT DEMI ECREME 0,99"},
		},
		{
			name:  "long fragment without price merged back",
			frags: []string{"POULET 5,99", " FERMIER LABEL ROUGE", " YAOURT 1,80"},
			want:  []string{"POULET 5,99 FERMIER LABEL ROUGE", " YAOURT 1,80"},
		},
		{
			name:  "priced fragments kept",
			frags: []string{"PAIN 1,20", " BEURRE 2,35"},
			want:  []string{"PAIN 1,20", " BEURRE 2,35"},
		},
		{
			name:  "nothing priced",
			frags: []string{"ABC", " DEF"},
			want:  []string{"ABC DEF"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mergeFragments(tc.frags))
		})
	}
}
