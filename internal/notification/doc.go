// Package notification は通知の保持と配信を行うmittoサーバーの中核を提供する。
//
// 受け付けた通知は有効期限付きでメモリ上に保持し、期限を過ぎると自動的に削除する。
// 送信元IPアドレスで配信先を絞り込むこともできる。
// アプリケーションIDが付いた通知はアイコン解決エンジンでアイコンを補完する。
package notification
