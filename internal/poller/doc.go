// Package poller はmittoサーバーの通知を定期的に取得し、
// まだ表示していない通知をデスクトップに表示するクライアントを提供する。
package poller
