package fedcoord_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/fedcoord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		desc    string
		content string
		want    fedcoord.Config
		err     bool
	}{
		{
			desc: "full config",
			content: `
[coordinator]
url = "https://coordinator.example.com"
tls_verification = true
`,
			want: fedcoord.Config{
				Coordinator: fedcoord.CoordinatorConfig{URL: "https://coordinator.example.com", TLSVerification: true},
			},
		},
		{
			desc:    "partial config keeps defaults",
			content: "[coordinator]\ntls_verification = true\n",
			want: fedcoord.Config{
				Coordinator: fedcoord.CoordinatorConfig{URL: fedcoord.DefCoordinatorURL, TLSVerification: true},
			},
		},
		{
			desc:    "malformed config",
			content: "[coordinator\nurl = ",
			err:     true,
		},
	}

	for i, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".toml")
			require.Nil(t, os.WriteFile(path, []byte(tc.content), 0o600))

			cfg, err := fedcoord.LoadConfig(path)
			if tc.err {
				assert.NotNil(t, err)

				return
			}
			require.Nil(t, err)
			assert.Equal(t, tc.want, cfg)
		})
	}

	_, err := fedcoord.LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.NotNil(t, err)
}
