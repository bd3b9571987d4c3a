package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		enabled string
		page    string
		want    Config
	}{
		{
			name: "defaults",
			want: NewDefaultConfig(),
		},
		{
			name:    "disabled",
			enabled: "off",
			want:    Config{Enabled: false, MaxPageSize: DefaultMaxPageSize},
		},
		{
			name: "page size",
			page: "50",
			want: Config{Enabled: true, MaxPageSize: 50},
		},
		{
			name:    "garbage is ignored",
			enabled: "maybe",
			page:    "lots",
			want:    NewDefaultConfig(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TENK_API_ENABLED", tt.enabled)
			t.Setenv("TENK_API_MAX_PAGE_SIZE", tt.page)
			require.Equal(t, tt.want, ResolveConfig(NewDefaultConfig()))
		})
	}
}

func TestPageLimit(t *testing.T) {
	require := require.New(t)
	j := NewJSONRPCServer(nil, 10)
	require.Equal(uint32(10), j.pageLimit(0))
	require.Equal(uint32(4), j.pageLimit(4))
	require.Equal(uint32(10), j.pageLimit(11))
}
