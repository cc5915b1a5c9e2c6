package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refKind string

const (
	kindBranch refKind = "branch"
	kindTag    refKind = "tag"
)

func kinds() *Normalizer[refKind] {
	return NewNormalizer(map[string]refKind{
		"Branch": kindBranch,
		"tag":    kindTag,
	}, "")
}

func TestNormalize(t *testing.T) {
	n := kinds()
	tests := []struct {
		name  string
		input string
		want  refKind
	}{
		{"exact", "tag", kindTag},
		{"key is normalized too", "branch", kindBranch},
		{"upper case", "TAG", kindTag},
		{"surrounding space", "  Branch ", kindBranch},
		{"unknown falls back to default", "commit", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizeWithError(t *testing.T) {
	n := kinds()

	got, err := n.NormalizeWithError(" BRANCH")
	require.NoError(t, err)
	assert.Equal(t, kindBranch, got)

	got, err = n.NormalizeWithError("commit")
	require.Error(t, err)
	assert.Empty(t, got)
	assert.Equal(t, `invalid value "commit", valid options: [branch tag]`, err.Error())
}

func TestValidKeys(t *testing.T) {
	n := kinds()
	keys := n.ValidKeys()
	assert.Equal(t, []string{"branch", "tag"}, keys)

	keys[0] = "mutated"
	assert.Equal(t, []string{"branch", "tag"}, n.ValidKeys())
}
