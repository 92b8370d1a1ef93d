package desktop

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// 通知方式。
const (
	KindAuto    = "auto"
	KindCommand = "command"
	KindConsole = "console"
)

// Notification はデスクトップに表示する1件の通知。
type Notification struct {
	// Title は通知のタイトル。
	Title string
	// Message は通知の本文。
	Message string
	// SubTitle は通知のサブタイトル。
	SubTitle string
	// Icon はアイコン画像のパスまたはURL。
	Icon string
}

// Notifier は通知を表示する。
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// New は指定された方式のNotifierを生成する。
// autoの場合、OSの通知コマンドが使えればCommand、使えなければwに出力するConsoleを返す。
func New(kind string, w io.Writer) (Notifier, error) {
	switch kind {
	case KindCommand:
		cmd := NewCommand()
		if !cmd.Available() {
			return nil, fmt.Errorf("%s では通知コマンドが見つかりません", runtime.GOOS)
		}
		return cmd, nil
	case KindConsole:
		return NewConsole(w), nil
	case KindAuto, "":
		if cmd := NewCommand(); cmd.Available() {
			return cmd, nil
		}
		return NewConsole(w), nil
	default:
		return nil, fmt.Errorf("不明な通知方式: %s", kind)
	}
}

// lookPath はコマンドの存在確認に使う。テストで差し替える。
var lookPath = exec.LookPath
