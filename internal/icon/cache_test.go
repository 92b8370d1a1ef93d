package icon

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache はテスト用の一時ディレクトリにCacheを開く。
func newTestCache(t *testing.T, opts ...CacheOption) *Cache {
	t.Helper()

	c, err := OpenCache(context.Background(), t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// iconFiles はキャッシュディレクトリ内のアイコンファイル名を返す。
func iconFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names
}

// TestCachePut はPutとHasを検証する。
func TestCachePut(t *testing.T) {
	t.Parallel()

	t.Run("書き込み直後にHasがtrueになること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		_, ok := c.Has("com.example.app")
		require.False(t, ok)

		p, err := c.Put(context.Background(), "com.example.app", []byte("png"), Record{SourceURL: "https://example.com/icon.png"})
		require.NoError(t, err)

		got, ok := c.Has("com.example.app")
		assert.True(t, ok)
		assert.Equal(t, p, got)
		assert.Equal(t, filepath.Join(c.Dir(), "com.example.app"), p)
	})

	t.Run("同じキーへの2回目の書き込みは既存のファイルを上書きしないこと", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		ctx := context.Background()

		_, err := c.Put(ctx, "com.example.app", []byte("first"), Record{SourceURL: "https://a.example.com"})
		require.NoError(t, err)
		_, err = c.Put(ctx, "com.example.app", []byte("second"), Record{SourceURL: "https://b.example.com"})
		require.NoError(t, err)

		assert.Equal(t, []string{"com.example.app"}, iconFiles(t, c.Dir()))

		f, rec, err := c.Open(ctx, "com.example.app")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "first", string(data))
		assert.Equal(t, "https://a.example.com", rec.SourceURL)
	})

	t.Run("同時書き込みでもいずれか1つの内容が完全に残ること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		ctx := context.Background()

		payloads := make([]string, 16)
		for i := range payloads {
			payloads[i] = strings.Repeat(fmt.Sprintf("%02d", i), 4096)
		}

		var wg sync.WaitGroup
		for _, p := range payloads {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Put(ctx, "com.example.race", []byte(p), Record{})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		data, err := os.ReadFile(filepath.Join(c.Dir(), "com.example.race"))
		require.NoError(t, err)
		assert.Contains(t, payloads, string(data))
		assert.Equal(t, []string{"com.example.race"}, iconFiles(t, c.Dir()))

		entries, err := os.ReadDir(c.Dir())
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".tmp-", "一時ファイルが残っている")
		}
	})

	t.Run("最大長のキーでも書き込めること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		key, err := NormalizeKey(strings.Repeat("a", maxKeyLength))
		require.NoError(t, err)

		p, err := c.Put(context.Background(), key, []byte("png"), Record{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(c.Dir(), key), p)
	})

	t.Run("インデックスの更新に失敗してもファイルが公開されていれば成功とすること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		require.NoError(t, c.db.Close())

		p, err := c.Put(context.Background(), "com.example.app", []byte("png"), Record{SourceURL: "https://example.com/icon.png"})
		require.NoError(t, err)

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "png", string(data))
		_, ok := c.Has("com.example.app")
		assert.True(t, ok)
	})
}

// TestCacheOpen はOpenを検証する。
func TestCacheOpen(t *testing.T) {
	t.Parallel()

	t.Run("存在しないキーはErrNotCachedになること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		_, _, err := c.Open(context.Background(), "com.example.missing")
		assert.ErrorIs(t, err, ErrNotCached)
	})

	t.Run("メタデータが返ること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		ctx := context.Background()
		_, err := c.Put(ctx, "com.example.app", []byte("png-bytes"), Record{
			SourceURL:   "https://example.com/icon.png",
			Provider:    "fdroid",
			ContentType: "image/png",
		})
		require.NoError(t, err)

		f, rec, err := c.Open(ctx, "com.example.app")
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, "com.example.app", rec.AppID)
		assert.Equal(t, "fdroid", rec.Provider)
		assert.Equal(t, "image/png", rec.ContentType)
		assert.Equal(t, int64(len("png-bytes")), rec.Size)
	})
}

// TestCacheLookup はLookupと有効期間による無効化を検証する。
func TestCacheLookup(t *testing.T) {
	t.Parallel()

	t.Run("有効期間を過ぎたアイコンは削除されること", func(t *testing.T) {
		t.Parallel()

		clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		c := newTestCache(t, WithMaxAge(time.Hour), WithCacheClock(clock))
		ctx := context.Background()

		_, err := c.Put(ctx, "com.example.app", []byte("png"), Record{})
		require.NoError(t, err)

		_, ok, err := c.Lookup(ctx, "com.example.app")
		require.NoError(t, err)
		assert.True(t, ok)

		clock.Advance(2 * time.Hour)

		_, ok, err = c.Lookup(ctx, "com.example.app")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok = c.Has("com.example.app")
		assert.False(t, ok)
	})

	t.Run("有効期間が0なら無期限に有効であること", func(t *testing.T) {
		t.Parallel()

		clock := clockwork.NewFakeClock()
		c := newTestCache(t, WithCacheClock(clock))
		ctx := context.Background()

		_, err := c.Put(ctx, "com.example.app", []byte("png"), Record{})
		require.NoError(t, err)
		clock.Advance(24 * 365 * time.Hour)

		_, ok, err := c.Lookup(ctx, "com.example.app")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("インデックスに無いファイルも参照できること", func(t *testing.T) {
		t.Parallel()

		c := newTestCache(t)
		require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "org.legacy.app"), []byte("legacy"), 0o644))

		rec, ok, err := c.Lookup(context.Background(), "org.legacy.app")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(len("legacy")), rec.Size)
		assert.Empty(t, rec.SourceURL)
	})
}

// TestCacheRecords はRecordsとEvictを検証する。
func TestCacheRecords(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"org.b.app", "org.a.app"} {
		_, err := c.Put(ctx, key, []byte(key), Record{Provider: "izzysoft"})
		require.NoError(t, err)
	}

	records, err := c.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "org.a.app", records[0].AppID)
	assert.Equal(t, "org.b.app", records[1].AppID)

	require.NoError(t, c.Evict(ctx, "org.a.app"))
	records, err = c.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "org.b.app", records[0].AppID)
}

// TestOpenCache は再オープン時にインデックスが保持されることを検証する。
func TestOpenCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	c, err := OpenCache(ctx, dir)
	require.NoError(t, err)
	_, err = c.Put(ctx, "com.example.app", []byte("png"), Record{SourceURL: "https://example.com/icon.png"})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	reopened, err := OpenCache(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()

	rec, ok, err := reopened.Lookup(ctx, "com.example.app")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/icon.png", rec.SourceURL)
}
