// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 共有認証情報ヘッダーの検証、クライアントIP単位のレート制限、
// リクエストログ、パニックリカバリ、CORS設定を含む。
package middleware
