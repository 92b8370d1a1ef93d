// mittoのエントリポイント。
// 通知を中継するサーバー（serve）と、通知を受信するクライアント（listen）を提供する。
package main

import "github.com/nao1215/mitto/internal/cli"

func main() {
	cli.Execute()
}
