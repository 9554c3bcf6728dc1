package tui

import (
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/feedsync/internal/core/overlay"
)

var rateSteps = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

const testMessage = "Test notification from feedsync"

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case drainMsg:
		m.woke.Store(false)
		if m.pump != nil {
			m.pump.Drain()
		}
		m.clampCursor()
		return m, m.afterLoop()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if m.toasts.HasToasts() {
			return m, scheduleToastTick()
		}
		m.toasts.SetTicking(false)
		return m, nil

	case heartTick:
		m.scheduler.Hearts().Tick()
		if m.scheduler.Hearts().Active() {
			return m, tea.Tick(heartTickInterval, func(time.Time) tea.Msg { return heartTick{} })
		}
		m.heartsTicking = false
		return m, nil

	case reloadMsg:
		if msg.Err != nil {
			m.bus.Warnf("Config reload failed: %v", msg.Err)
		} else if msg.Config != nil {
			m.applyConfig(msg.Config)
			m.bus.Infof("Config reloaded")
		}
		return m, tea.Batch(m.waitForReload(), m.afterLoop())

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.clampCursor()
		return m, tea.Batch(cmd, m.afterLoop())
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.Dismiss()
		return nil
	case key.Matches(msg, m.keys.Switch):
		m.switchScreen()
		return nil
	case key.Matches(msg, m.keys.Refresh):
		if m.screen == screenReels {
			m.reels.Refresh()
		} else {
			m.notifications.Refresh()
		}
		return nil
	}

	if m.screen == screenReels {
		m.handleReelKey(msg)
	} else {
		m.handleNotificationKey(msg)
	}
	return nil
}

// switchScreen moves focus between the screens. The notifications push
// subscription only stays open while that screen has focus.
func (m *Model) switchScreen() {
	if m.screen == screenReels {
		m.screen = screenNotifications
		m.scheduler.SetVisible(false)
		if m.source != nil {
			m.notifications.Attach(m.source)
			m.notifications.Refresh()
		}
		return
	}
	m.screen = screenReels
	m.scheduler.SetVisible(true)
	m.notifications.Detach()
}

func (m *Model) handleNotificationKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.Select):
		if n, ok := m.currentNotification(); ok {
			if m.selected[n.ID] {
				delete(m.selected, n.ID)
			} else {
				m.selected[n.ID] = true
			}
		}
	case key.Matches(msg, m.keys.MarkRead):
		if ids := m.targets(); len(ids) > 1 {
			m.report(m.notifications.MarkReadMany(ids))
		} else if len(ids) == 1 {
			m.report(m.notifications.MarkRead(ids[0]))
		}
		clear(m.selected)
	case key.Matches(msg, m.keys.MarkAll):
		m.report(m.notifications.MarkAllRead())
	case key.Matches(msg, m.keys.Send):
		m.report(m.notifications.Send(testMessage))
		m.cursor = 0
	case key.Matches(msg, m.keys.Delete):
		if ids := m.targets(); len(ids) > 1 {
			m.report(m.notifications.DeleteMany(ids))
		} else if len(ids) == 1 {
			m.report(m.notifications.Delete(ids[0]))
		}
		clear(m.selected)
	}
}

// targets returns the selected ids in list order, or the id under the
// cursor when nothing is selected.
func (m *Model) targets() []string {
	if len(m.selected) == 0 {
		if n, ok := m.currentNotification(); ok {
			return []string{n.ID}
		}
		return nil
	}
	var ids []string
	for _, n := range m.notificationItems() {
		if m.selected[n.ID] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (m *Model) handleReelKey(msg tea.KeyMsg) {
	id, ok := m.focusedReel()

	switch {
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.Tap):
		if ok {
			m.scheduler.Tap(id)
		}
	case key.Matches(msg, m.keys.Like):
		if ok {
			m.report(m.reels.ToggleLike(id))
		}
	case key.Matches(msg, m.keys.Mute):
		m.scheduler.SetMuted(!m.scheduler.Muted())
	case key.Matches(msg, m.keys.Faster):
		m.scheduler.SetRate(stepRate(m.scheduler.Rate(), 1))
	case key.Matches(msg, m.keys.Slower):
		m.scheduler.SetRate(stepRate(m.scheduler.Rate(), -1))
	case key.Matches(msg, m.keys.Retry):
		if ok {
			m.report(m.scheduler.Retry(id))
		}
	}
}

// scroll moves one reel and settles on the nearest item, the way a paged
// list snaps after a fling.
func (m *Model) scroll(dir int) {
	n := len(m.reels.Items())
	if n == 0 {
		return
	}
	offset := float64(m.scheduler.Focused()+dir) * reelExtent
	offset = max(0, min(offset, float64(n-1)*reelExtent))
	m.scheduler.Settle(offset, reelExtent)
}

func (m *Model) focusedReel() (string, bool) {
	items := m.reels.Items()
	i := m.scheduler.Focused()
	if i < 0 || i >= len(items) {
		return "", false
	}
	return items[i].ID, true
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, overlay.ErrUnknownEntity) {
		m.bus.Warnf("That item is gone")
		return
	}
	m.bus.Warnf("%v", err)
}

func stepRate(cur float64, dir int) float64 {
	i := slices.Index(rateSteps, cur)
	if i < 0 {
		i = slices.Index(rateSteps, 1)
	}
	i = max(0, min(i+dir, len(rateSteps)-1))
	return rateSteps[i]
}
