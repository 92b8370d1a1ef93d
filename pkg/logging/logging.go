// Package logging はlogrusベースのロガーを構築する。
//
// ログファイルが指定された場合はlumberjackでローテーションしながら書き込み、
// 指定が無ければ標準エラー出力に書き込む。
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options はロガーの設定。
type Options struct {
	// Level はログレベル（debug, info, warn, error）。
	Level string
	// File はログファイルのパス。空の場合は標準エラー出力に書き込む。
	File string
	// MaxSizeMB はローテーションするファイルサイズ（MB）。
	MaxSizeMB int
	// MaxBackups は保持する古いログファイルの数。
	MaxBackups int
}

// New は設定に従ってロガーを生成する。
func New(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(levelOrDefault(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("ログレベルの解析に失敗: %w", err)
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var out io.Writer = os.Stderr
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, fmt.Errorf("ログディレクトリの作成に失敗: %w", err)
		}
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    valueOr(opts.MaxSizeMB, 10),
			MaxBackups: valueOr(opts.MaxBackups, 3),
		}
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	log.SetOutput(out)

	return log, nil
}

// Discard は何も出力しないロガーを返す。テストで使用する。
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func valueOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
