package desktop

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported は通知コマンドが無いOSであることを表す。
var ErrUnsupported = errors.New("このOSでは通知コマンドを利用できません")

// Runner は外部コマンドを実行する関数。
type Runner func(ctx context.Context, name string, args ...string) error

// Command はOSの通知コマンドで通知を表示する。
// Linux等ではnotify-send、macOSではosascriptを使う。
type Command struct {
	// goos は対象のOS。
	goos string
	// run はコマンドの実行関数。
	run Runner
}

// CommandOption はCommandの設定を変更する関数。
type CommandOption func(*Command)

// WithGOOS は対象のOSを差し替える。
func WithGOOS(goos string) CommandOption {
	return func(c *Command) {
		c.goos = goos
	}
}

// WithRunner はコマンドの実行関数を差し替える。
func WithRunner(run Runner) CommandOption {
	return func(c *Command) {
		c.run = run
	}
}

// NewCommand は実行中のOS向けのCommandを生成する。
func NewCommand(opts ...CommandOption) *Command {
	c := &Command{
		goos: runtime.GOOS,
		run:  runCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available は通知コマンドが利用可能かどうかを返す。
func (c *Command) Available() bool {
	name, _, err := commandFor(c.goos, Notification{})
	if err != nil {
		return false
	}
	_, err = lookPath(name)
	return err == nil
}

// Notify は通知コマンドを実行する。
func (c *Command) Notify(ctx context.Context, n Notification) error {
	name, args, err := commandFor(c.goos, n)
	if err != nil {
		return err
	}
	if err := c.run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s の実行に失敗: %w", name, err)
	}
	return nil
}

// commandFor はOSごとの通知コマンドと引数を返す。
func commandFor(goos string, n Notification) (string, []string, error) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(n.Message), appleScriptString(n.Title))
		if n.SubTitle != "" {
			script += " subtitle " + appleScriptString(n.SubTitle)
		}
		return "osascript", []string{"-e", script}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		args := []string{"--app-name=mitto"}
		if n.Icon != "" {
			args = append(args, "--icon="+n.Icon)
		}
		body := n.Message
		if n.SubTitle != "" {
			body = n.SubTitle + "\n" + body
		}
		args = append(args, "--", n.Title, body)
		return "notify-send", args, nil
	default:
		return "", nil, ErrUnsupported
	}
}

// appleScriptString は文字列をAppleScriptの文字列リテラルにする。
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
