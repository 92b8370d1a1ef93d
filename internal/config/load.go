package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NewViper は環境変数MITTO_*を読み込むviperを生成する。
// configFileが指定された場合はYAML設定ファイルも読み込む。
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("MITTO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", configFile, err)
		}
	}
	return v, nil
}

// LoadServer はviperからサーバー設定を読み込み、検証する。
func LoadServer(v *viper.Viper) (Server, error) {
	cfg := DefaultServer()
	var errs []error

	cfg.AuthUser = v.GetString(KeyAuthUser)
	cfg.AuthPass = v.GetString(KeyAuthPass)
	cfg.CertFile = v.GetString(KeyCert)
	cfg.KeyFile = v.GetString(KeyKey)
	cfg.SameIPOnly = v.GetBool(KeySameIPOnly)
	cfg.RateLimit = v.GetInt(KeyRateLimit)
	cfg.TrustForwardedFor = v.GetBool(KeyTrustForwardedFor)
	cfg.ForceHTTPSIcons = v.GetBool(KeyForceHTTPSIcons)
	cfg.CORSOrigins = v.GetStringSlice(KeyCORSOrigin)
	cfg.Metrics = v.GetBool(KeyMetrics)

	if v.IsSet(KeyPort) {
		cfg.Port = v.GetString(KeyPort)
	}
	if v.IsSet(KeyIconsDir) && v.GetString(KeyIconsDir) != "" {
		cfg.IconsDir = v.GetString(KeyIconsDir)
	}
	if v.IsSet(KeyProxyIcons) {
		cfg.ProxyIcons = v.GetBool(KeyProxyIcons)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{KeyAliveTime, &cfg.AliveTime},
		{KeyRateLimitWindow, &cfg.RateLimitWindow},
		{KeyIconTimeout, &cfg.IconTimeout},
		{KeyIconMaxAge, &cfg.IconMaxAge},
	}
	for _, d := range durations {
		if err := readDuration(v, d.key, d.dst); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadClient はviperからクライアント設定を読み込み、検証する。
// remoteは接続先のURLで、末尾のスラッシュは取り除く。
func LoadClient(v *viper.Viper, remote string) (Client, error) {
	cfg := DefaultClient()
	cfg.Remote = strings.TrimRight(remote, "/")
	cfg.AuthUser = v.GetString(KeyAuthUser)
	cfg.AuthPass = v.GetString(KeyAuthPass)
	if s := v.GetString(KeyNotifier); s != "" {
		cfg.Notifier = s
	}
	if v.IsSet(KeyIconCacheDir) {
		cfg.IconCacheDir = v.GetString(KeyIconCacheDir)
	}
	if err := readDuration(v, KeyFrequency, &cfg.Frequency); err != nil {
		return Client{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// LoadLogging はviperからロガー設定を読み込む。
func LoadLogging(v *viper.Viper) Logging {
	return Logging{
		Level: v.GetString(KeyLogLevel),
		File:  v.GetString(KeyLogFile),
	}
}

// readDuration はkeyの値を期間として読み込む。値が未設定の場合はdstを変更しない。
func readDuration(v *viper.Viper, key string, dst *time.Duration) error {
	if !v.IsSet(key) {
		return nil
	}
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return nil
	}
	d, err := ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("--%s の解析に失敗: %w", key, err)
	}
	*dst = d
	return nil
}

// ParseDuration は期間を解析する。
// 単位の無い数値は秒として扱い、それ以外はtime.ParseDurationの形式で解析する。
func ParseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
