package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/jobdesk/internal/tui/model"
	"github.com/matheus3301/jobdesk/internal/tui/ui"
)

// StatusBar shows the session, the unread badge, key hints and flash
// messages.
type StatusBar struct {
	*tview.TextView
	theme      *ui.Theme
	session    string
	user       string
	unread     int
	showUnread bool
	hints      []string
	flash      string
	flashLevel model.Level
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// SetSession updates the session and user display.
func (sb *StatusBar) SetSession(name, user string) {
	sb.session = name
	sb.user = user
	sb.render()
}

// SetUnread updates the unread badge. A negative count hides it.
func (sb *StatusBar) SetUnread(n int) {
	sb.showUnread = n >= 0
	sb.unread = n
	sb.render()
}

// SetHints replaces the key hints.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string, level model.Level) {
	sb.flash = msg
	sb.flashLevel = level
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-]", tview.Escape(sb.session))
	if sb.user != "" {
		line += " " + tview.Escape(sb.user)
	}
	if sb.showUnread {
		badge := sb.theme.MutedColor
		if sb.unread > 0 {
			badge = sb.theme.BadgeColor
		}
		line += fmt.Sprintf(" | [%s]%d unread[-]", ui.Tag(badge), sb.unread)
	}
	for _, h := range sb.hints {
		line += fmt.Sprintf("  [%s]%s[-]", ui.Tag(sb.theme.MenuKeyColor), tview.Escape(h))
	}
	if sb.flash != "" {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.Tag(sb.flashColor()), tview.Escape(sb.flash))
	}

	_, _ = fmt.Fprint(sb, line)
}

func (sb *StatusBar) flashColor() tcell.Color {
	switch sb.flashLevel {
	case model.LevelWarn:
		return sb.theme.FlashWarnColor
	case model.LevelErr:
		return sb.theme.FlashErrColor
	default:
		return sb.theme.FlashInfoColor
	}
}
