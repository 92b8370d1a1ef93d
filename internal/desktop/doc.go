// Package desktop はポーリングクライアントが受け取った通知をデスクトップに表示する。
//
// OSの通知コマンド（notify-send、osascript）を呼び出すCommandと、
// 端末に整形して出力するConsoleの2種類を提供する。
package desktop
