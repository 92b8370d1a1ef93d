package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadServer はLoadServer関数を検証する。
func TestLoadServer(t *testing.T) {
	t.Parallel()

	t.Run("何も指定しなければ既定値になること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadServer(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "7331", cfg.Port)
		assert.Equal(t, 10*time.Second, cfg.AliveTime)
		assert.True(t, cfg.ProxyIcons)
		assert.False(t, cfg.TLSEnabled())
	})

	t.Run("単位の無いalive-timeは秒として扱われること", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyAliveTime, "1")
		v.Set(KeyIconMaxAge, "24h")
		v.Set(KeyProxyIcons, false)
		v.Set(KeySameIPOnly, true)

		cfg, err := LoadServer(v)
		require.NoError(t, err)
		assert.Equal(t, time.Second, cfg.AliveTime)
		assert.Equal(t, 24*time.Hour, cfg.IconMaxAge)
		assert.False(t, cfg.ProxyIcons)
		assert.True(t, cfg.SameIPOnly)
	})

	t.Run("証明書だけ指定するとエラーになること", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyCert, "/tmp/cert.pem")

		_, err := LoadServer(v)
		assert.Error(t, err)
	})

	t.Run("解析できない期間でエラーになること", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyAliveTime, "ten seconds")

		_, err := LoadServer(v)
		assert.ErrorContains(t, err, "alive-time")
	})

	t.Run("不正なポートでエラーになること", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyPort, "http")

		_, err := LoadServer(v)
		assert.Error(t, err)
	})
}

// TestLoadClient はLoadClient関数を検証する。
func TestLoadClient(t *testing.T) {
	t.Parallel()

	t.Run("URL末尾のスラッシュが除去されること", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyFrequency, "5")
		v.Set(KeyAuthUser, "alice")

		cfg, err := LoadClient(v, "https://mitto.example.com/")
		require.NoError(t, err)
		assert.Equal(t, "https://mitto.example.com", cfg.Remote)
		assert.Equal(t, 5*time.Second, cfg.Frequency)
		assert.Equal(t, "alice", cfg.AuthUser)
		assert.Equal(t, "auto", cfg.Notifier)
	})

	t.Run("URLが空ならエラーになること", func(t *testing.T) {
		t.Parallel()

		_, err := LoadClient(viper.New(), "")
		assert.Error(t, err)
	})

	t.Run("未知の通知方式でエラーになること", func(t *testing.T) {
		t.Parallel()

		v := viper.New()
		v.Set(KeyNotifier, "pigeon")

		_, err := LoadClient(v, "http://localhost:7331")
		assert.Error(t, err)
	})
}

// TestNewViper はNewViper関数を検証する。
func TestNewViper(t *testing.T) {
	t.Run("YAML設定ファイルを読み込めること", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "mitto.yaml")
		require.NoError(t, os.WriteFile(file, []byte("port: \"8080\"\nsame-ip-only: true\n"), 0o600))

		v, err := NewViper(file)
		require.NoError(t, err)

		cfg, err := LoadServer(v)
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.True(t, cfg.SameIPOnly)
	})

	t.Run("環境変数から読み込めること", func(t *testing.T) {
		t.Setenv("MITTO_AUTH_USER", "alice")
		t.Setenv("MITTO_AUTH_PASS", "secret")

		v, err := NewViper("")
		require.NoError(t, err)

		cfg, err := LoadServer(v)
		require.NoError(t, err)
		assert.Equal(t, "alice", cfg.AuthUser)
		assert.Equal(t, "secret", cfg.AuthPass)
	})

	t.Run("存在しない設定ファイルでエラーになること", func(t *testing.T) {
		_, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

// TestParseDuration はParseDuration関数を検証する。
func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "10", want: 10 * time.Second},
		{in: "1.5", want: 1500 * time.Millisecond},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "2m", want: 2 * time.Minute},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
