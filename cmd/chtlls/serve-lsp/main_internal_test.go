package serve_lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/settings"
)

func TestOverride(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(s *settings.Settings)
	}{
		{
			name: "no flags",
			args: nil,
			want: func(s *settings.Settings) {},
		},
		{
			name: "every flag",
			args: []string{"--compiler-path", "/opt/chtlc", "--preview-port", "4000", "--auto-refresh"},
			want: func(s *settings.Settings) {
				s.Compiler.Path = "/opt/chtlc"
				s.Preview.Port = 4000
				s.Preview.AutoRefresh = true
			},
		},
		{
			name: "auto refresh explicitly off",
			args: []string{"--auto-refresh=false"},
			want: func(s *settings.Settings) {
				s.Preview.AutoRefresh = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewServeLSPCommand("test")
			require.NoError(t, cmd.ParseFlags(tt.args))

			me := &Handler{}
			me.compilerPath, _ = cmd.Flags().GetString("compiler-path")
			me.port, _ = cmd.Flags().GetInt("preview-port")
			me.autoRefresh, _ = cmd.Flags().GetBool("auto-refresh")

			base := settings.Default()
			base.Preview.AutoRefresh = true

			got := base
			me.override(cmd)(&got)

			want := base
			tt.want(&want)
			assert.Equal(t, want, got)
		})
	}
}
