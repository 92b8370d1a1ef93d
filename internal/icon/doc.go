// Package icon はアプリケーションIDからアイコンを解決する。
//
// F-Droid、Google Play、App Store、IzzyOnDroidの順にプロバイダへ問い合わせ、
// 最初に見つかったアイコンをディスクにキャッシュする。キャッシュ済みのアイコンは
// プロキシマーカー（local://<app_id>）として通知に格納され、配信時に
// 自サーバーの /icon/<app_id> のURLへ書き換えられる。
package icon
