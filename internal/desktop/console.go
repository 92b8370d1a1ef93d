package desktop

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Console は通知を端末に枠付きで出力する。
type Console struct {
	// mu は出力の混在を防ぐ。
	mu sync.Mutex
	// w は出力先。
	w io.Writer
	// box は通知全体のスタイル。
	box lipgloss.Style
	// title はタイトルのスタイル。
	title lipgloss.Style
	// sub はサブタイトルとアイコンのスタイル。
	sub lipgloss.Style
}

// NewConsole はwに出力するConsoleを生成する。
func NewConsole(w io.Writer) *Console {
	return &Console{
		w: w,
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		sub:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Notify は通知を出力する。
func (c *Console) Notify(_ context.Context, n Notification) error {
	lines := []string{c.title.Render(n.Title)}
	if n.SubTitle != "" {
		lines = append(lines, c.sub.Render(n.SubTitle))
	}
	if n.Message != "" {
		lines = append(lines, n.Message)
	}
	if n.Icon != "" {
		lines = append(lines, c.sub.Render("icon: "+n.Icon))
	}

	out := c.box.Render(strings.Join(lines, "\n"))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.w, out); err != nil {
		return fmt.Errorf("通知の出力に失敗: %w", err)
	}
	return nil
}
