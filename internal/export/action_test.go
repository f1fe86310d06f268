package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Action
		wantErr bool
	}{
		{name: "bare action", args: []string{"linux"}, want: Action{Name: "linux"}},
		{name: "debug", args: []string{"glinux", "debug"}, want: Action{Name: "glinux", Debug: true}},
		{name: "threads", args: []string{"glinux", "j8"}, want: Action{Name: "glinux", Threads: 8}},
		{name: "debug and threads any order", args: []string{"gweb", "j2", "debug"}, want: Action{Name: "gweb", Debug: true, Threads: 2}},
		{name: "bare thread count", args: []string{"glinux", "4"}, want: Action{Name: "glinux", Threads: 4}},
		{name: "zero threads", args: []string{"glinux", "j0"}, wantErr: true},
		{name: "garbage threads", args: []string{"glinux", "jx"}, wantErr: true},
		{name: "unknown flag", args: []string{"glinux", "fast"}, wantErr: true},
		{name: "missing action", args: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, rkerrors.IsCategory(err, rkerrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThreads(t *testing.T) {
	assert.Equal(t, 6, Threads(6))
	assert.GreaterOrEqual(t, Threads(0), 1)
	assert.GreaterOrEqual(t, Threads(-3), 1)
}

func TestResolve(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		action string
		want   Plan
	}{
		{"linux", Plan{Kind: KindExport, Targets: []string{"linux"}}},
		{"win", Plan{Kind: KindExport, Targets: []string{"win32", "win64"}}},
		{"gweb", Plan{Kind: KindGenerate, Targets: []string{"gweb"}}},
		{"gwin", Plan{Kind: KindGenerate, Targets: []string{"gwin32", "gwin64"}}},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, err := Resolve(cfg, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Resolve(cfg, "solaris")
	require.Error(t, err)
	assert.True(t, rkerrors.IsCategory(err, rkerrors.CategoryValidation))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "export", KindExport.String())
	assert.Equal(t, "generate", KindGenerate.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
