package poller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/mitto/pkg/httpclient"
)

// iconStore は通知のアイコンをローカルに保存する。
// OSの通知コマンドはURLのアイコンを表示できないため、ファイルにしてから渡す。
type iconStore struct {
	// dir は保存先のディレクトリ。
	dir string
	// client はアイコンのダウンロードに使うクライアント。認証ヘッダーは付けない。
	client *httpclient.Client
}

func newIconStore(dir string) *iconStore {
	return &iconStore{dir: dir, client: httpclient.New("")}
}

// fetch はiconURLの画像を保存し、そのパスを返す。保存済みの場合はダウンロードしない。
func (s *iconStore) fetch(ctx context.Context, iconURL string) (string, error) {
	u, err := url.Parse(iconURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("アイコンURLが不正です: %s", iconURL)
	}

	sum := sha256.Sum256([]byte(iconURL))
	base := hex.EncodeToString(sum[:16])
	if matches, _ := filepath.Glob(filepath.Join(s.dir, base+".*")); len(matches) > 0 {
		return matches[0], nil
	}

	resp, err := s.client.Get(ctx, iconURL)
	if err != nil {
		return "", err
	}
	if len(resp.Body) == 0 {
		return "", errors.New("アイコンの内容が空です")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("アイコンディレクトリの作成に失敗: %w", err)
	}
	dst := filepath.Join(s.dir, base+iconExt(u.Path, resp.ContentType))

	tmp, err := os.CreateTemp(s.dir, ".icon-*")
	if err != nil {
		return "", fmt.Errorf("一時ファイルの作成に失敗: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("アイコンの書き込みに失敗: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("アイコンの書き込みに失敗: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("アイコンの保存に失敗: %w", err)
	}
	return dst, nil
}

// imageExts はURLの拡張子として採用する画像の拡張子。
var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico"}

// iconExt は保存するファイルの拡張子を決める。
// Content-Typeを優先し、判別できなければURLの拡張子を使う。
func iconExt(urlPath, contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			return exts[0]
		}
	}
	if ext := strings.ToLower(path.Ext(urlPath)); slices.Contains(imageExts, ext) {
		return ext
	}
	return ".img"
}
