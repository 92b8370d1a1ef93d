package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/internal/icon"
	"github.com/nao1215/mitto/internal/metrics"
	"github.com/nao1215/mitto/pkg/middleware"
	"github.com/sirupsen/logrus"
)

// shutdownTimeout はサーバー停止時に処理中のリクエストを待つ時間。
const shutdownTimeout = 5 * time.Second

// maxRequestBody は通知リクエストのボディの最大サイズ。
const maxRequestBody = 256 << 10

// IconResolver はアプリケーションIDから通知に格納するアイコンの値を求める。
type IconResolver interface {
	Resolve(ctx context.Context, appID string) (string, error)
}

// IconSource はキャッシュ済みのアイコン画像を提供する。
type IconSource interface {
	Open(ctx context.Context, key string) (*os.File, icon.Record, error)
}

// Server は通知の受け付けと配信を行うHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はサーバー設定。
	cfg config.Server
	// store は通知ストア。
	store *Store
	// resolver はアイコン解決エンジン。nilの場合はアイコンを補完しない。
	resolver IconResolver
	// icons はキャッシュ済みアイコンの提供元。nilの場合は/iconが常に404になる。
	icons IconSource
	// limiter はクライアント単位のレート制限。無効の場合はnil。
	limiter *middleware.RateLimiter
	// log はロガー。
	log logrus.FieldLogger
}

// NewServer は新しい通知サーバーを生成する。
func NewServer(cfg config.Server, store *Store, resolver IconResolver, icons IconSource, log logrus.FieldLogger) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	if cfg.Metrics {
		router.Use(metrics.Middleware())
	}
	if len(cfg.CORSOrigins) > 0 {
		router.Use(middleware.CORS(cfg.CORSOrigins))
	}

	s := &Server{
		router:   router,
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		icons:    icons,
		log:      log,
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, s.clientIP)
		router.Use(s.limiter.Handler())
	}
	s.setupRoutes()

	return s
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxが終了するまで待つ。
// 証明書と秘密鍵が指定されている場合はHTTPSで待ち受ける。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.TLSEnabled() {
		cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("証明書の読み込みに失敗: %w", err)
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	if s.limiter != nil {
		s.limiter.StartCleanup(ctx, s.cfg.RateLimitWindow)
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	s.log.WithFields(logrus.Fields{
		"port":         s.cfg.Port,
		"tls":          srv.TLSConfig != nil,
		"same_ip_only": s.cfg.SameIPOnly,
		"alive_time":   s.cfg.AliveTime.String(),
	}).Info("mittoサーバーを起動しました")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	s.log.Info("mittoサーバーを停止しました")
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// キャッシュ済みアイコンの配信（デスクトップ通知が認証無しで取得するため認証不要）
	s.router.GET("/icon/:app_id", s.handleIcon())

	auth := s.router.Group("/")
	auth.Use(middleware.HeaderAuth(middleware.Credential(s.cfg.AuthUser, s.cfg.AuthPass)))
	{
		// 通知の受け付け
		auth.POST("/new-notification", s.handleNew())
		// 通知一覧取得
		auth.GET("/notifications", s.handleList())
	}

	if s.cfg.Metrics {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
}

// clientIP はリクエスト元のIPアドレスを返す。
func (s *Server) clientIP(c *gin.Context) string {
	return middleware.ClientIP(c, s.cfg.TrustForwardedFor)
}

// handleNew は通知を受け付けてストアに保存するハンドラ。
// アイコンが指定されずアプリケーションIDがある場合はアイコンを解決する。
// アイコンの解決に失敗してもリクエストは成功として扱う。
func (s *Server) handleNew() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)
		body, err := c.GetRawData()
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		var req newNotificationRequest
		if len(body) > 0 {
			if err := binding.JSON.BindBody(body, &req); err != nil {
				s.log.WithError(err).Debug("通知リクエストが不正です")
				c.Status(http.StatusBadRequest)
				return
			}
		}

		n := Notification{
			Title:    req.Title,
			Text:     req.Text,
			SubTitle: req.SubTitle,
			SubText:  req.SubText,
			AppName:  req.AppName,
			AppID:    req.AppID,
			Icon:     req.Icon,
		}

		if n.Icon == "" && n.AppID != "" && s.resolver != nil {
			resolved, err := s.resolver.Resolve(c.Request.Context(), n.AppID)
			if err != nil {
				s.log.WithField("app_id", n.AppID).WithError(err).Info("アイコンを解決できませんでした")
			} else {
				n.Icon = resolved
			}
		}

		if s.cfg.SameIPOnly {
			n.IP = s.clientIP(c)
		}

		id := s.store.Insert(n, s.cfg.AliveTime)
		metrics.NotificationIngested()
		s.log.WithFields(logrus.Fields{"id": id, "app_id": n.AppID}).Debug("通知を受け付けました")

		c.Status(http.StatusOK)
	}
}

// handleList は保持中の通知をIDをキーとするJSONオブジェクトで返すハンドラ。
// プロキシマーカーのアイコンは自サーバーの/iconを指すURLに書き換える。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		var snapshot map[string]Notification
		if s.cfg.SameIPOnly {
			snapshot = s.store.SnapshotForIP(s.clientIP(c))
		} else {
			snapshot = s.store.Snapshot()
		}

		base := s.iconBaseURL(c)
		resp := make(map[string]notificationResponse, len(snapshot))
		for id, n := range snapshot {
			if key, ok := icon.ParseProxyMarker(n.Icon); ok {
				n.Icon = base + key
			}
			resp[id] = toNotificationResponse(n)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// iconBaseURL はキャッシュ済みアイコンを指すURLの接頭辞を返す。
func (s *Server) iconBaseURL(c *gin.Context) string {
	proto := "http"
	if s.cfg.ForceHTTPSIcons || c.Request.TLS != nil {
		proto = "https"
	}
	return proto + "://" + c.Request.Host + "/icon/"
}

// handleIcon はキャッシュ済みアイコンを返すハンドラ。
func (s *Server) handleIcon() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.icons == nil {
			c.Status(http.StatusNotFound)
			return
		}

		key, err := icon.NormalizeKey(c.Param("app_id"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}

		f, rec, err := s.icons.Open(c.Request.Context(), key)
		if err != nil {
			if !errors.Is(err, icon.ErrNotCached) {
				s.log.WithField("app_id", key).WithError(err).Warn("アイコンの読み込みに失敗しました")
			}
			c.Status(http.StatusNotFound)
			return
		}
		defer f.Close()

		if rec.ContentType != "" {
			c.Header("Content-Type", rec.ContentType)
		}
		http.ServeContent(c.Writer, c.Request, key, rec.FetchedAt, f)
	}
}
