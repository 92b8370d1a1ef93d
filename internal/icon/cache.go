package icon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/nao1215/mitto/pkg/logging"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotCached はキーに対応するアイコンがキャッシュに存在しないことを表す。
var ErrNotCached = errors.New("アイコンがキャッシュされていません")

// indexFile はアイコンインデックスのファイル名。
// キーは英数字で始まるため、ドットで始まるファイル名はアイコンと衝突しない。
const indexFile = ".index.db"

// Record はキャッシュ済みアイコンのメタデータ。
type Record struct {
	// AppID は正規化したアプリケーションID。
	AppID string
	// SourceURL はダウンロード元のURL。
	SourceURL string
	// Provider はアイコンを見つけたプロバイダ名。
	Provider string
	// ContentType は画像のMIMEタイプ。
	ContentType string
	// Size はファイルサイズ（バイト）。
	Size int64
	// FetchedAt は取得日時。
	FetchedAt time.Time
	// Path はキャッシュファイルのパス。
	Path string
}

// recordRow はiconsテーブルの1行。
type recordRow struct {
	AppID       string `db:"app_id"`
	SourceURL   string `db:"source_url"`
	Provider    string `db:"provider"`
	ContentType string `db:"content_type"`
	Size        int64  `db:"size"`
	FetchedAt   int64  `db:"fetched_at"`
}

// Cache はアプリケーションIDをキーとするディスク上のアイコンストア。
// 追記専用で、一度書き込んだキーは上書きしない。
type Cache struct {
	// dir はアイコンファイルを置くディレクトリ。
	dir string
	// db はアイコンインデックスのSQLite接続。
	db *sqlx.DB
	// maxAge はアイコンの有効期間。0の場合は無期限。
	maxAge time.Duration
	// clock は現在時刻の取得に使う時計。
	clock clockwork.Clock
	// log はロガー。
	log logrus.FieldLogger
}

// CacheOption はCacheの設定を変更する関数。
type CacheOption func(*Cache)

// WithMaxAge はキャッシュしたアイコンの有効期間を設定する。
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.maxAge = d
	}
}

// WithCacheClock はCacheが使う時計を差し替える。
func WithCacheClock(clock clockwork.Clock) CacheOption {
	return func(c *Cache) {
		c.clock = clock
	}
}

// WithCacheLogger はCacheが使うロガーを設定する。
func WithCacheLogger(log logrus.FieldLogger) CacheOption {
	return func(c *Cache) {
		c.log = log
	}
}

// OpenCache はdirをアイコンキャッシュとして開く。
// ディレクトリとインデックスが存在しなければ作成する。
func OpenCache(ctx context.Context, dir string, opts ...CacheOption) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("アイコンディレクトリの作成に失敗: %w", err)
	}

	dsn := "file:" + filepath.Join(dir, indexFile) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("アイコンインデックスの接続に失敗: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Cache{
		dir:   dir,
		db:    db,
		clock: clockwork.NewRealClock(),
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close はインデックスの接続を閉じる。
func (c *Cache) Close() error {
	return c.db.Close()
}

// Dir はアイコンディレクトリを返す。
func (c *Cache) Dir() string {
	return c.dir
}

// path はキーに対応するキャッシュファイルのパスを返す。
func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key)
}

// Has はキーに対応するアイコンファイルが存在すればそのパスを返す。
func (c *Cache) Has(key string) (string, bool) {
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// Lookup はキーに対応する有効なアイコンのメタデータを返す。
// 有効期間を過ぎたアイコンは削除し、見つからなかったものとして扱う。
func (c *Cache) Lookup(ctx context.Context, key string) (Record, bool, error) {
	p, ok := c.Has(key)
	if !ok {
		return Record{}, false, nil
	}

	rec, err := c.record(ctx, key, p)
	if err != nil {
		return Record{}, false, err
	}

	if c.maxAge > 0 && c.clock.Since(rec.FetchedAt) > c.maxAge {
		if err := c.Evict(ctx, key); err != nil {
			return Record{}, false, err
		}
		return Record{}, false, nil
	}
	return rec, true, nil
}

// record はインデックスからメタデータを読み込む。
// インデックスに行が無いファイルはファイルの更新日時を取得日時とみなす。
func (c *Cache) record(ctx context.Context, key, p string) (Record, error) {
	var row recordRow
	err := c.db.GetContext(ctx, &row,
		`SELECT app_id, source_url, provider, content_type, size, fetched_at FROM icons WHERE app_id = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		info, statErr := os.Stat(p)
		if statErr != nil {
			return Record{}, fmt.Errorf("キャッシュファイルの確認に失敗: %w", statErr)
		}
		return Record{AppID: key, Size: info.Size(), FetchedAt: info.ModTime(), Path: p}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("アイコンインデックスの読み込みに失敗: %w", err)
	}
	return row.toRecord(p), nil
}

func (r recordRow) toRecord(p string) Record {
	return Record{
		AppID:       r.AppID,
		SourceURL:   r.SourceURL,
		Provider:    r.Provider,
		ContentType: r.ContentType,
		Size:        r.Size,
		FetchedAt:   time.Unix(r.FetchedAt, 0),
		Path:        p,
	}
}

// Put はdataをキーのアイコンとして書き込み、キャッシュファイルのパスを返す。
// 既にキーが存在する場合は何もせず既存のパスを返す（先に書いた方が優先される）。
// 一時ファイルをハードリンクで公開するため、読み手が書き込み途中の内容を見ることはない。
// インデックスの更新に失敗してもファイルは公開済みのため、ログに残してパスを返す。
func (c *Cache) Put(ctx context.Context, key string, data []byte, meta Record) (string, error) {
	final := c.path(key)
	if p, ok := c.Has(key); ok {
		return p, nil
	}

	tmp, err := os.CreateTemp(c.dir, "."+key+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("一時ファイルの作成に失敗: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("アイコンの書き込みに失敗: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("アイコンの書き込みに失敗: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("アイコンの権限設定に失敗: %w", err)
	}

	if err := os.Link(tmp.Name(), final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return final, nil
		}
		return "", fmt.Errorf("アイコンの公開に失敗: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO icons (app_id, source_url, provider, content_type, size, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key, meta.SourceURL, meta.Provider, meta.ContentType, int64(len(data)), c.clock.Now().Unix())
	if err != nil {
		c.log.WithField("app_id", key).WithError(err).Warn("アイコンインデックスの更新に失敗しました")
	}
	return final, nil
}

// Open はキーに対応するアイコンファイルとメタデータを返す。
// 呼び出し側はファイルを閉じる必要がある。
func (c *Cache) Open(ctx context.Context, key string) (*os.File, Record, error) {
	p, ok := c.Has(key)
	if !ok {
		return nil, Record{}, ErrNotCached
	}
	rec, err := c.record(ctx, key, p)
	if err != nil {
		return nil, Record{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Record{}, ErrNotCached
		}
		return nil, Record{}, fmt.Errorf("アイコンファイルのオープンに失敗: %w", err)
	}
	return f, rec, nil
}

// Evict はキーに対応するアイコンとメタデータを削除する。
func (c *Cache) Evict(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("アイコンファイルの削除に失敗: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM icons WHERE app_id = ?`, key); err != nil {
		return fmt.Errorf("アイコンインデックスの削除に失敗: %w", err)
	}
	return nil
}

// Records はインデックスに登録された全アイコンのメタデータをID順に返す。
func (c *Cache) Records(ctx context.Context) ([]Record, error) {
	var rows []recordRow
	err := c.db.SelectContext(ctx, &rows,
		`SELECT app_id, source_url, provider, content_type, size, fetched_at FROM icons ORDER BY app_id`)
	if err != nil {
		return nil, fmt.Errorf("アイコンインデックスの読み込みに失敗: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord(c.path(r.AppID)))
	}
	return records, nil
}
