package versions

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		buildInfo *debug.BuildInfo
		ok        bool
		want      VersionInfo
	}{
		{
			name: "no build info",
			want: VersionInfo{Version: "dev"},
		},
		{
			name: "module version and vcs stamp",
			buildInfo: &debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.time", Value: "2025-01-15T10:30:00Z"},
					{Key: "GOOS", Value: "linux"},
				},
			},
			ok:   true,
			want: VersionInfo{Version: "v1.2.3", Commit: "abc123", BuildDate: "2025-01-15T10:30:00Z"},
		},
		{
			name:      "devel build",
			buildInfo: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			ok:        true,
			want:      VersionInfo{Version: "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := versionInfo(func() (*debug.BuildInfo, bool) { return tt.buildInfo, tt.ok })

			assert.Equal(t, tt.want.Version, got.Version)
			assert.Equal(t, tt.want.Commit, got.Commit)
			assert.Equal(t, tt.want.BuildDate, got.BuildDate)
			assert.Equal(t, runtime.Version(), got.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, got.Platform)
		})
	}
}
