// Package httpclient は外部HTTPサービスとの通信を行うクライアントを提供する。
//
// アイコンプロバイダへの問い合わせ、アイコン画像のダウンロード、
// リモートのmittoサーバーへのポーリングや通知送信など、
// 外部通信のパターンを統一する。
package httpclient
