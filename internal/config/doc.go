// Package config はmittoのサーバーとクライアントの設定を定義する。
//
// 設定はコマンドラインフラグ、MITTO_で始まる環境変数、YAML設定ファイルから
// viperを通して読み込まれ、明示的な構造体として各コンポーネントの
// コンストラクタに渡される。
package config
