// Package credential はポーリングクライアントの認証情報をOSのキーリングに保存する。
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

// serviceName はキーリング上のサービス名。
const serviceName = "mitto"

// キーリングに保存する項目のキー。
const (
	keyUser = "auth-user"
	keyPass = "auth-pass"
)

// ErrNotFound は認証情報が保存されていないことを表す。
var ErrNotFound = errors.New("認証情報が保存されていません")

// Store はキーリング上の認証情報を読み書きする。
type Store struct {
	ring keyring.Keyring
}

// NewStore はringを使うStoreを生成する。
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open はOSのキーリングを開く。
// OSのキーリングが使えない環境では設定ディレクトリ配下のファイルに保存する。
func Open() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "mitto", "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("mitto-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("キーリングのオープンに失敗: %w", err)
	}
	return NewStore(ring), nil
}

// Save はユーザー名とパスワードを保存する。
func (s *Store) Save(user, pass string) error {
	if user == "" || pass == "" {
		return errors.New("ユーザー名とパスワードの両方が必要です")
	}
	for key, value := range map[string]string{keyUser: user, keyPass: pass} {
		if err := s.ring.Set(keyring.Item{
			Key:   key,
			Data:  []byte(value),
			Label: "mitto " + key,
		}); err != nil {
			return fmt.Errorf("認証情報 %q の保存に失敗: %w", key, err)
		}
	}
	return nil
}

// Load は保存されたユーザー名とパスワードを返す。
// どちらかが保存されていない場合はErrNotFoundを返す。
func (s *Store) Load() (string, string, error) {
	user, err := s.get(keyUser)
	if err != nil {
		return "", "", err
	}
	pass, err := s.get(keyPass)
	if err != nil {
		return "", "", err
	}
	return user, pass, nil
}

func (s *Store) get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("認証情報 %q の取得に失敗: %w", key, err)
	}
	return string(item.Data), nil
}

// Delete は保存された認証情報を削除する。保存されていない項目は無視する。
func (s *Store) Delete() error {
	for _, key := range []string{keyUser, keyPass} {
		if err := s.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("認証情報 %q の削除に失敗: %w", key, err)
		}
	}
	return nil
}
