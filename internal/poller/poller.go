package poller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/nao1215/mitto/internal/config"
	"github.com/nao1215/mitto/internal/desktop"
	"github.com/nao1215/mitto/pkg/httpclient"
	"github.com/nao1215/mitto/pkg/middleware"
	"github.com/sirupsen/logrus"
)

// minRetention は表示済みIDを保持する最短の期間。
const minRetention = time.Minute

// remoteNotification は/notificationsが返す1件分のJSON構造。
type remoteNotification struct {
	// Icon はアイコンのURL。
	Icon string `json:"icon"`
	// Text は通知の本文。
	Text string `json:"text"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// AppName は通知元アプリケーションの表示名。
	AppName string `json:"app_name"`
	// SubText は通知の補足テキスト。
	SubText string `json:"sub_text"`
	// SubTitle は通知のサブタイトル。
	SubTitle string `json:"sub_title"`
	// AppID は通知元アプリケーションのID。
	AppID string `json:"app_id"`
	// ExpiresAt は通知が削除される日時。
	ExpiresAt string `json:"expires_at"`
}

// Poller はmittoサーバーをポーリングして新しい通知を表示する。
type Poller struct {
	// client はmittoサーバーへの通信クライアント。
	client *httpclient.Client
	// notifier は通知の表示先。
	notifier desktop.Notifier
	// icons はアイコンのダウンロード先。nilの場合はURLのまま通知に渡す。
	icons *iconStore
	// frequency はポーリング間隔。
	frequency time.Duration
	// retention は表示済みIDを最後に見てから保持する期間。
	retention time.Duration
	// clock は時刻の取得とスケジューリングに使う時計。
	clock clockwork.Clock
	// log はロガー。
	log logrus.FieldLogger

	// mu はseenを保護する。
	mu sync.Mutex
	// seen は表示済みの通知IDと、最後にサーバーの応答に含まれていた時刻。
	seen map[string]time.Time
}

// Option はPollerの設定を変更する関数。
type Option func(*Poller)

// WithClock はPollerが使う時計を差し替える。
func WithClock(clock clockwork.Clock) Option {
	return func(p *Poller) {
		p.clock = clock
	}
}

// New は新しいPollerを生成する。
func New(cfg config.Client, notifier desktop.Notifier, log logrus.FieldLogger, opts ...Option) *Poller {
	clientOpts := []httpclient.Option{httpclient.WithTimeout(cfg.Frequency * 10)}
	if cred := middleware.Credential(cfg.AuthUser, cfg.AuthPass); cred != "" {
		clientOpts = append(clientOpts, httpclient.WithHeader("Authorization", cred))
	}

	p := &Poller{
		client:    httpclient.New(cfg.Remote, clientOpts...),
		notifier:  notifier,
		frequency: cfg.Frequency,
		retention: max(cfg.Frequency*20, minRetention),
		clock:     clockwork.NewRealClock(),
		log:       log,
		seen:      make(map[string]time.Time),
	}
	if cfg.IconCacheDir != "" {
		p.icons = newIconStore(cfg.IconCacheDir)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll は通知一覧を1回取得し、未表示の通知を表示する。
// 表示に失敗した通知も表示済みとして扱い、再表示はしない。
func (p *Poller) Poll(ctx context.Context) error {
	var resp map[string]remoteNotification
	if err := p.client.GetJSON(ctx, "/notifications", &resp); err != nil {
		return err
	}

	fresh := p.markSeen(resp)
	for _, id := range fresh {
		p.dispatch(ctx, id, resp[id])
	}
	return nil
}

// markSeen は応答に含まれるIDを表示済みとして記録し、新しく現れたIDを有効期限順に返す。
// 応答の到着順が前後しても、一度記録したIDは保持期間が過ぎるまで再表示しない。
func (p *Poller) markSeen(resp map[string]remoteNotification) []string {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	var fresh []string
	for id := range resp {
		if _, ok := p.seen[id]; !ok {
			fresh = append(fresh, id)
		}
		p.seen[id] = now
	}
	for id, last := range p.seen {
		if now.Sub(last) > p.retention {
			delete(p.seen, id)
		}
	}

	slices.SortFunc(fresh, func(a, b string) int {
		return cmp.Or(cmp.Compare(resp[a].ExpiresAt, resp[b].ExpiresAt), cmp.Compare(a, b))
	})
	return fresh
}

// dispatch は1件の通知をデスクトップに表示する。
func (p *Poller) dispatch(ctx context.Context, id string, n remoteNotification) {
	log := p.log.WithFields(logrus.Fields{"id": id, "app_id": n.AppID})

	iconRef := n.Icon
	if p.icons != nil && iconRef != "" {
		local, err := p.icons.fetch(ctx, iconRef)
		if err != nil {
			log.WithError(err).Debug("アイコンのダウンロードに失敗したためURLのまま使用します")
		} else {
			iconRef = local
		}
	}

	if err := p.notifier.Notify(ctx, desktop.Notification{
		Title:    displayTitle(n),
		Message:  n.Text,
		SubTitle: n.SubTitle,
		Icon:     iconRef,
	}); err != nil {
		log.WithError(err).Warn("通知の表示に失敗しました")
		return
	}
	log.Info("新しい通知を表示しました")
}

// displayTitle は「アプリ名 - タイトル」形式の表示用タイトルを返す。
func displayTitle(n remoteNotification) string {
	if n.AppName == "" {
		return n.Title
	}
	return n.AppName + " - " + n.Title
}

// Run はctxが終了するまで一定間隔でPollを実行する。
// 取得に失敗してもポーリングは継続する。
func (p *Poller) Run(ctx context.Context) error {
	s, err := gocron.NewScheduler(gocron.WithClock(p.clock))
	if err != nil {
		return fmt.Errorf("スケジューラの生成に失敗: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(p.frequency),
		gocron.NewTask(func() {
			if err := p.Poll(ctx); err != nil {
				p.logPollError(err)
			}
		}),
		gocron.WithName("poll-notifications"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("ポーリングジョブの登録に失敗: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"remote":    p.client.BaseURL(),
		"frequency": p.frequency.String(),
	}).Info("通知の待ち受けを開始しました")

	s.Start()
	<-ctx.Done()

	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("スケジューラの停止に失敗: %w", err)
	}
	return nil
}

// logPollError はポーリングの失敗をログに出力する。
func (p *Poller) logPollError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusForbidden {
		p.log.Warn("認証に失敗しました。--auth-user と --auth-pass を設定してください")
		return
	}
	p.log.WithError(err).Error("通知の取得に失敗しました")
}
