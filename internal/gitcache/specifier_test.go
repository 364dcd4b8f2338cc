package gitcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Specifier
	}{
		{
			name: "full form",
			raw:  "git+https://github.com/org/bmad-modules.git#v6.1:src/modules",
			want: Specifier{
				RepoURL: "https://github.com/org/bmad-modules.git",
				Ref:     "v6.1",
				Subpath: "src/modules",
			},
		},
		{
			name: "no subpath",
			raw:  "git+https://github.com/org/repo#main",
			want: Specifier{RepoURL: "https://github.com/org/repo", Ref: "main"},
		},
		{
			name: "no fragment",
			raw:  "git+https://github.com/org/repo",
			want: Specifier{RepoURL: "https://github.com/org/repo"},
		},
		{
			name: "empty ref with subpath",
			raw:  "git+https://github.com/org/repo#:bmad",
			want: Specifier{RepoURL: "https://github.com/org/repo", Subpath: "bmad"},
		},
		{
			name: "ssh scheme",
			raw:  "git+ssh://git@github.com/org/repo#main",
			want: Specifier{RepoURL: "ssh://git@github.com/org/repo", Ref: "main"},
		},
		{
			name: "subpath trailing slash trimmed",
			raw:  "git+https://github.com/org/repo#main:bmad/",
			want: Specifier{RepoURL: "https://github.com/org/repo", Ref: "main", Subpath: "bmad"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpecifier(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpecifierErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing git+ prefix", "https://github.com/org/repo#main"},
		{"unsupported scheme", "git+ftp://example.com/repo"},
		{"no host", "git+https:///repo"},
		{"no repository path", "git+https://github.com"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpecifier(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidSpecifier)
		})
	}
}

func TestSpecifierString(t *testing.T) {
	raw := "git+https://github.com/org/repo#main:bmad"
	spec, err := ParseSpecifier(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, spec.String())

	bare := Specifier{RepoURL: "https://github.com/org/repo"}
	assert.Equal(t, "git+https://github.com/org/repo", bare.String())
}
