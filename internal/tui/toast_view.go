package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/feedsync/internal/core/notice"
	"github.com/colonyops/feedsync/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders the toast stack.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View renders the toasts stacked vertically, oldest at top.
func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}
	return strings.Join(rendered, "\n")
}

func renderToast(t toast) string {
	var style lipgloss.Style
	switch t.notice.Level {
	case notice.LevelError:
		style = styles.ToastErrorStyle
	case notice.LevelWarning:
		style = styles.ToastWarningStyle
	default:
		style = styles.ToastInfoStyle
	}
	return style.Width(toastWidth).Render(t.notice.Message)
}

// Overlay places the toast stack under background, right aligned, and
// trims background so the result fits height.
func (v *ToastView) Overlay(background string, width, height int) string {
	content := v.View()
	if content == "" {
		return background
	}

	toastH := lipgloss.Height(content)
	lines := strings.Split(background, "\n")
	if height > 0 {
		keep := max(height-toastH, 0)
		if len(lines) > keep {
			lines = lines[:keep]
		}
	}

	placed := lipgloss.PlaceHorizontal(max(width, lipgloss.Width(content)), lipgloss.Right, content)
	return strings.Join(append(lines, placed), "\n")
}
