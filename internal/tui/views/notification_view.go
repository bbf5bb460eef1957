package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/jobdesk/internal/model"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/tui/ui"
)

// NotificationView lists the cached notification window.
type NotificationView struct {
	*tview.Table
	theme *ui.Theme
	items []model.Notification
	now   func() time.Time
}

// NewNotificationView creates the notification table.
func NewNotificationView(theme *ui.Theme) *NotificationView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	nv := &NotificationView{Table: table, theme: theme, now: time.Now}
	nv.Update(notify.Snapshot{})
	return nv
}

// Update renders snap, keeping the cursor on the same notification when
// it is still listed.
func (nv *NotificationView) Update(snap notify.Snapshot) {
	selected, hadSelection := nv.Selected()
	nv.items = snap.Items

	title := fmt.Sprintf(" Notifications [%s]%d unread[-] ", ui.Tag(nv.theme.BadgeColor), snap.UnreadCount)
	if snap.Loading {
		title += "(loading) "
	}
	nv.SetTitle(title)

	nv.Clear()
	for col, h := range []string{"", "TYPE", "TITLE", "MESSAGE", "AGE"} {
		nv.SetCell(0, col, tview.NewTableCell(" "+h).
			SetSelectable(false).
			SetTextColor(nv.theme.TableHeaderFg).
			SetBackgroundColor(nv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	if len(snap.Items) == 0 {
		empty := "no notifications"
		if snap.Err != nil {
			empty = "couldn't load notifications"
		}
		nv.SetCell(1, 2, tview.NewTableCell(" "+empty).
			SetSelectable(false).
			SetTextColor(nv.theme.MutedColor))
		return
	}

	now := nv.now()
	for i, n := range snap.Items {
		row := i + 1
		color := nv.theme.MutedColor
		marker := " "
		if !n.IsRead {
			color = nv.theme.UnreadColor
			marker = "●"
		}
		nv.SetCell(row, 0, tview.NewTableCell(" "+marker).SetTextColor(nv.theme.BadgeColor))
		nv.SetCell(row, 1, tview.NewTableCell(" "+n.TypeID.String()).SetTextColor(color))
		nv.SetCell(row, 2, tview.NewTableCell(" "+cellText(n.Heading())).SetMaxWidth(30).SetTextColor(color))
		nv.SetCell(row, 3, tview.NewTableCell(" "+cellText(n.Message)).SetExpansion(1).SetTextColor(color))
		nv.SetCell(row, 4, tview.NewTableCell(" "+formatAge(n.CreatedAt.Time, now)).SetTextColor(color))
		if hadSelection && n.ID == selected.ID {
			nv.Select(row, 0)
		}
	}
}

// Selected returns the notification under the cursor.
func (nv *NotificationView) Selected() (model.Notification, bool) {
	row, _ := nv.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(nv.items) {
		return nv.items[idx], true
	}
	return model.Notification{}, false
}
