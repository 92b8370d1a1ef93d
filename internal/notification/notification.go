package notification

import "time"

// Notification はストアが保持する1件の通知。
type Notification struct {
	// ID はストア内で一意な通知ID。
	ID string
	// Title は通知のタイトル。
	Title string
	// Text は通知の本文。
	Text string
	// SubTitle は通知のサブタイトル。
	SubTitle string
	// SubText は通知の補足テキスト。
	SubText string
	// AppName は通知元アプリケーションの表示名。
	AppName string
	// AppID は通知元アプリケーションのID。
	AppID string
	// Icon はアイコンのURLまたはプロキシマーカー。空の場合はアイコン無し。
	Icon string
	// IP は送信元のIPアドレス。同一IP限定モードでのみ記録する。
	IP string
	// ExpiresAt は通知が削除される日時。
	ExpiresAt time.Time
}

// newNotificationRequest は通知受け付けリクエストのJSON構造。
// 全フィールドが省略可能で、省略時は空文字列になる。
type newNotificationRequest struct {
	// Icon はアイコンのURL。指定された場合はアイコン解決を行わない。
	Icon string `json:"icon"`
	// Text は通知の本文。
	Text string `json:"text"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// AppID は通知元アプリケーションのID。
	AppID string `json:"app_id"`
	// AppName は通知元アプリケーションの表示名。
	AppName string `json:"app_name"`
	// SubText は通知の補足テキスト。
	SubText string `json:"sub_text"`
	// SubTitle は通知のサブタイトル。
	SubTitle string `json:"sub_title"`
}

// notificationResponse は通知一覧で返す1件分のJSON構造。
// 送信元IPアドレスは含めない。
type notificationResponse struct {
	// Icon はアイコンのURL。
	Icon string `json:"icon"`
	// Text は通知の本文。
	Text string `json:"text"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// AppName は通知元アプリケーションの表示名。
	AppName string `json:"app_name"`
	// SubText は通知の補足テキスト。
	SubText string `json:"sub_text"`
	// SubTitle は通知のサブタイトル。
	SubTitle string `json:"sub_title"`
	// AppID は通知元アプリケーションのID。
	AppID string `json:"app_id,omitempty"`
	// ExpiresAt は通知が削除される日時（RFC3339形式）。
	ExpiresAt string `json:"expires_at"`
}

// toNotificationResponse は通知をJSONレスポンスに変換する。
func toNotificationResponse(n Notification) notificationResponse {
	return notificationResponse{
		Icon:      n.Icon,
		Text:      n.Text,
		Title:     n.Title,
		AppName:   n.AppName,
		SubText:   n.SubText,
		SubTitle:  n.SubTitle,
		AppID:     n.AppID,
		ExpiresAt: n.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
