package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// 設定キー。コマンドラインフラグ名と一致させる。
const (
	KeyConfig            = "config"
	KeyLogLevel          = "log-level"
	KeyLogFile           = "log-file"
	KeyAuthUser          = "auth-user"
	KeyAuthPass          = "auth-pass"
	KeyCert              = "cert"
	KeyKey               = "key"
	KeyPort              = "port"
	KeyAliveTime         = "alive-time"
	KeySameIPOnly        = "same-ip-only"
	KeyRateLimit         = "rate-limit"
	KeyRateLimitWindow   = "rate-limit-window"
	KeyTrustForwardedFor = "trust-forwarded-for"
	KeyIconsDir          = "icons-dir"
	KeyProxyIcons        = "proxy-icons"
	KeyForceHTTPSIcons   = "force-https-icons"
	KeyIconTimeout       = "icon-timeout"
	KeyIconMaxAge        = "icon-max-age"
	KeyCORSOrigin        = "cors-origin"
	KeyMetrics           = "metrics"
	KeyFrequency         = "frequency"
	KeyNotifier          = "notifier"
	KeyIconCacheDir      = "icon-cache-dir"
)

// 既定値。
const (
	DefaultPort            = "7331"
	DefaultAliveTime       = 10 * time.Second
	DefaultRateLimitWindow = time.Minute
	DefaultIconTimeout     = 30 * time.Second
	DefaultFrequency       = 3 * time.Second
	DefaultNotifier        = "auto"
)

// Server はmittoサーバーの設定。
type Server struct {
	// AuthUser は認証ヘッダーに要求するユーザー名。
	AuthUser string
	// AuthPass は認証ヘッダーに要求するパスワード。
	AuthPass string
	// CertFile はTLS証明書のパス。
	CertFile string
	// KeyFile はTLS秘密鍵のパス。
	KeyFile string
	// Port はサーバーのリッスンポート。
	Port string
	// AliveTime は通知が保持される時間。
	AliveTime time.Duration
	// SameIPOnly は送信元と同じIPアドレスにのみ通知を返すかどうか。
	SameIPOnly bool
	// RateLimit はウィンドウあたりの最大リクエスト数。0の場合は無効。
	RateLimit int
	// RateLimitWindow はレート制限のウィンドウ幅。
	RateLimitWindow time.Duration
	// TrustForwardedFor はX-Forwarded-Forヘッダーをクライアントアドレスとして信頼するかどうか。
	TrustForwardedFor bool
	// IconsDir はアイコンキャッシュのディレクトリ。
	IconsDir string
	// ProxyIcons はアイコンをダウンロードして自サーバーから配信するかどうか。
	ProxyIcons bool
	// ForceHTTPSIcons はアイコンURLのスキームを常にhttpsにするかどうか。
	ForceHTTPSIcons bool
	// IconTimeout はアイコンプロバイダへのリクエストタイムアウト。
	IconTimeout time.Duration
	// IconMaxAge はキャッシュしたアイコンの有効期間。0の場合は無期限。
	IconMaxAge time.Duration
	// CORSOrigins はクロスオリジンリクエストを許可するオリジン。
	CORSOrigins []string
	// Metrics は/metricsエンドポイントを公開するかどうか。
	Metrics bool
}

// DefaultServer は既定値で初期化したサーバー設定を返す。
func DefaultServer() Server {
	return Server{
		Port:            DefaultPort,
		AliveTime:       DefaultAliveTime,
		RateLimitWindow: DefaultRateLimitWindow,
		IconsDir:        DefaultIconsDir(),
		ProxyIcons:      true,
		IconTimeout:     DefaultIconTimeout,
	}
}

// DefaultIconsDir は既定のアイコンキャッシュディレクトリを返す。
func DefaultIconsDir() string {
	return filepath.Join(os.TempDir(), "mitto-icons")
}

// TLSEnabled は証明書と秘密鍵の両方が指定されているかどうかを返す。
func (s Server) TLSEnabled() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

// Validate は設定値の整合性を検証する。
func (s Server) Validate() error {
	var errs []error
	if (s.CertFile == "") != (s.KeyFile == "") {
		errs = append(errs, errors.New("--cert と --key は同時に指定する必要があります"))
	}
	if _, err := strconv.ParseUint(s.Port, 10, 16); err != nil {
		errs = append(errs, errors.New("--port が不正です: "+s.Port))
	}
	if s.AliveTime <= 0 {
		errs = append(errs, errors.New("--alive-time は正の値である必要があります"))
	}
	if s.RateLimit < 0 {
		errs = append(errs, errors.New("--rate-limit は0以上である必要があります"))
	}
	if s.RateLimit > 0 && s.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("--rate-limit-window は正の値である必要があります"))
	}
	if s.IconsDir == "" {
		errs = append(errs, errors.New("--icons-dir が空です"))
	}
	if s.IconMaxAge < 0 {
		errs = append(errs, errors.New("--icon-max-age は0以上である必要があります"))
	}
	return errors.Join(errs...)
}

// Client はポーリングクライアントの設定。
type Client struct {
	// Remote はポーリング先のmittoサーバーのURL。
	Remote string
	// AuthUser は認証ヘッダーに付与するユーザー名。
	AuthUser string
	// AuthPass は認証ヘッダーに付与するパスワード。
	AuthPass string
	// Frequency はポーリング間隔。
	Frequency time.Duration
	// Notifier はデスクトップ通知の出力方式（auto, command, console）。
	Notifier string
	// IconCacheDir はダウンロードしたアイコンの保存先。空の場合はURLのまま通知に渡す。
	IconCacheDir string
}

// DefaultClient は既定値で初期化したクライアント設定を返す。
func DefaultClient() Client {
	return Client{
		Frequency:    DefaultFrequency,
		Notifier:     DefaultNotifier,
		IconCacheDir: filepath.Join(os.TempDir(), "mitto-client-icons"),
	}
}

// Validate は設定値の整合性を検証する。
func (c Client) Validate() error {
	var errs []error
	if c.Remote == "" {
		errs = append(errs, errors.New("接続先のURLが指定されていません"))
	}
	if c.Frequency <= 0 {
		errs = append(errs, errors.New("--frequency は正の値である必要があります"))
	}
	switch c.Notifier {
	case "auto", "command", "console":
	default:
		errs = append(errs, errors.New("--notifier が不正です: "+c.Notifier))
	}
	return errors.Join(errs...)
}

// Logging はロガーの設定。
type Logging struct {
	// Level はログレベル。
	Level string
	// File はログファイルのパス。
	File string
}
