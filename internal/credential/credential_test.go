package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore は認証情報の保存、読み込み、削除を検証する。
func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("保存した認証情報を読み込めること", func(t *testing.T) {
		t.Parallel()

		s := NewStore(keyring.NewArrayKeyring(nil))
		require.NoError(t, s.Save("alice", "secret"))

		user, pass, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "secret", pass)
	})

	t.Run("未保存の場合はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()

		_, _, err := NewStore(keyring.NewArrayKeyring(nil)).Load()
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("片方だけ保存されている場合はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()

		ring := keyring.NewArrayKeyring([]keyring.Item{{Key: "auth-user", Data: []byte("alice")}})
		_, _, err := NewStore(ring).Load()
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("空の値は保存できないこと", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, NewStore(keyring.NewArrayKeyring(nil)).Save("alice", ""))
	})

	t.Run("削除後は読み込めないこと", func(t *testing.T) {
		t.Parallel()

		s := NewStore(keyring.NewArrayKeyring(nil))
		require.NoError(t, s.Save("alice", "secret"))
		require.NoError(t, s.Delete())

		_, _, err := s.Load()
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Delete(), "未保存の状態で削除してもエラーにならないこと")
	})
}
