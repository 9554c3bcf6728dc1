package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/styles"
	"github.com/colonyops/feedsync/internal/playback"
	"github.com/colonyops/feedsync/internal/push"
)

// View renders the active screen.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.screen == screenReels {
		b.WriteString(m.renderReels())
	} else {
		b.WriteString(m.renderNotifications())
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render(m.help.View(screenHelp{keys: m.keys, screen: m.screen})))

	return m.toastView.Overlay(b.String(), m.width, m.height)
}

func (m *Model) renderHeader() string {
	notifTab := fmt.Sprintf("%s Notifications", styles.IconBell)
	if n := m.notifications.UnreadCount(); n > 0 {
		notifTab += fmt.Sprintf(" (%d)", n)
	}
	reelTab := fmt.Sprintf("%s Reels", styles.IconPlay)

	tabs := []string{styles.TabStyle.Render(notifTab), styles.TabStyle.Render(reelTab)}
	if m.screen == screenReels {
		tabs[1] = styles.TabActiveStyle.Render(reelTab)
	} else {
		tabs[0] = styles.TabActiveStyle.Render(notifTab)
	}

	status := []string{m.renderConnection()}
	if p := m.notifications.Pending() + m.reels.Pending(); p > 0 {
		status = append(status, styles.PendingStyle.Render(fmt.Sprintf("%d pending", p)))
	}
	if m.notifications.Loading() || m.reels.Loading() {
		status = append(status, styles.TimeStyle.Render(styles.IconSpinner+" syncing"))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	right := strings.Join(status, "  ")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 2)
	return styles.HeaderStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) renderConnection() string {
	if m.connection == nil {
		return styles.OfflineStyle.Render(styles.IconDot + " push off")
	}
	switch m.conn {
	case push.StateConnected:
		return styles.ConnectedStyle.Render(styles.IconDot + " live")
	case push.StateConnecting:
		return styles.ConnectingStyle.Render(styles.IconDot + " connecting")
	default:
		return styles.OfflineStyle.Render(styles.IconDot + " offline")
	}
}

func (m *Model) renderNotifications() string {
	items := m.notificationItems()
	if len(items) == 0 {
		switch {
		case !m.notifications.Loaded() && m.notifications.LastError() != nil:
			return styles.ErrorStyle.Render("Could not load notifications. Press r to retry.")
		case !m.notifications.Loaded():
			return styles.TimeStyle.Render("Loading notifications…")
		default:
			return styles.TimeStyle.Render("You're all caught up.")
		}
	}

	now := m.runner.Now()
	lines := make([]string, 0, len(items))
	for i, n := range items {
		lines = append(lines, m.renderNotification(i, n, now))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderNotification(i int, n entity.Notification, now time.Time) string {
	cursor := "  "
	if i == m.cursor {
		cursor = styles.SelectedStyle.Render("> ")
	}
	mark := " "
	if m.selected[n.ID] {
		mark = styles.SelectedStyle.Render("x")
	}

	text := m.fit(n.Message, 24)
	dot := styles.ReadStyle.Render("○")
	msg := styles.ReadStyle.Render(text)
	if !n.Read {
		dot = styles.UnreadStyle.Render(styles.IconDot)
		msg = styles.UnreadStyle.Render(text)
	}
	if i == m.cursor {
		msg = styles.SelectedStyle.Render(text)
	}

	line := fmt.Sprintf("%s%s %s %s  %s", cursor, mark, dot, msg, styles.TimeStyle.Render(relativeTime(now, n.CreatedAt)))
	if m.notifications.IsPending(n.ID) {
		line += "  " + styles.PendingStyle.Render("syncing")
	}
	return line
}

// fit truncates s so that it leaves reserve cells of the terminal width for
// the surrounding decoration.
func (m *Model) fit(s string, reserve int) string {
	if m.width <= reserve {
		return s
	}
	return ansi.Truncate(s, m.width-reserve, "…")
}

func (m *Model) renderReels() string {
	items := m.reels.Items()
	if len(items) == 0 {
		if !m.reels.Loaded() {
			return styles.TimeStyle.Render("Loading reels…")
		}
		return styles.TimeStyle.Render("No reels yet.")
	}

	i := m.scheduler.Focused()
	if i < 0 || i >= len(items) {
		return ""
	}
	reel := items[i]
	st, _ := m.scheduler.State(i)

	var b strings.Builder
	fmt.Fprintf(&b, "Reel %d/%d", i+1, len(items))
	if reel.AuthorID != "" {
		fmt.Fprintf(&b, " · @%s", reel.AuthorID)
	}
	b.WriteString("\n")

	body := []string{m.renderPlayback(st)}
	if reel.Caption != "" {
		body = append(body, styles.NormalStyle.Render(m.fit(reel.Caption, 8)))
	}
	body = append(body, styles.TimeStyle.Render(playback.DeliveryURL(reel.MediaURL)))
	if h := m.scheduler.Hearts().Get(reel.ID); h != nil {
		body = append(body, styles.HeartStyle.Render(strings.Repeat(styles.IconHeart+" ", max(h.TicksLeft/2, 1))))
	}
	b.WriteString(styles.MediaFrameStyle.Render(strings.Join(body, "\n")))
	b.WriteString("\n")

	heart := styles.ReadStyle.Render(styles.IconHeartOff)
	if m.reels.Liked(reel.ID) {
		heart = styles.HeartStyle.Render(styles.IconHeart)
	}
	fmt.Fprintf(&b, "%s %d", heart, reel.LikeCount)
	if liking, ok := m.reels.PendingLike(reel.ID); ok {
		label := "unliking"
		if liking {
			label = "liking"
		}
		b.WriteString("  " + styles.PendingStyle.Render(label))
	}
	return b.String()
}

func (m *Model) renderPlayback(st playback.ItemState) string {
	settings := fmt.Sprintf("%gx", m.scheduler.Rate())
	if m.scheduler.Muted() {
		settings = styles.IconMuted + " " + settings
	} else {
		settings = styles.IconVolume + " " + settings
	}

	var status string
	switch {
	case st.Playing:
		status = styles.ConnectedStyle.Render(styles.IconPlay + " playing")
	case st.Load == playback.LoadReady:
		status = styles.NormalStyle.Render(styles.IconPause + " paused")
	case st.Load == playback.LoadErrored && st.AutoRetry:
		status = styles.WarningStyle.Render(fmt.Sprintf("%s retrying (attempt %d/%d)", styles.IconRetry, st.Attempts, st.MaxAttempts))
	case st.Load == playback.LoadErrored && st.Exhausted:
		status = styles.ErrorStyle.Render(fmt.Sprintf("%s gave up after %d attempts: %v. Press R to retry.", styles.IconRetry, st.Attempts, st.Err))
	case st.Load == playback.LoadErrored:
		status = styles.ErrorStyle.Render(fmt.Sprintf("%s could not load: %v. Press R to retry.", styles.IconRetry, st.Err))
	default:
		status = styles.TimeStyle.Render(styles.IconSpinner + " loading")
	}
	return status + "  " + styles.TimeStyle.Render(settings)
}

func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
