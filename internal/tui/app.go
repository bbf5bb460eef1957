// Package tui is the interactive terminal front end: search-as-you-type
// over the job catalog and a notification panel.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	dmodel "github.com/matheus3301/jobdesk/internal/model"
	"github.com/matheus3301/jobdesk/internal/tui/keys"
	"github.com/matheus3301/jobdesk/internal/tui/model"
	"github.com/matheus3301/jobdesk/internal/tui/ui"
	"github.com/matheus3301/jobdesk/internal/tui/views"
)

const (
	pageSearch        = "search"
	pageNotifications = "notifications"

	actionTimeout = 20 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	vm        *model.ViewModel
	registry  *keys.Registry
	theme     *ui.Theme
	logger    *zap.Logger
	statusBar *views.StatusBar
	searchV   *views.SearchView
	notifV    *views.NotificationView
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application over vm.
func NewApp(vm *model.ViewModel, sessionName, user string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        vm,
		registry:  keys.NewRegistry(),
		theme:     theme,
		logger:    logger.Named("tui"),
		statusBar: views.NewStatusBar(theme),
		searchV:   views.NewSearchView(theme),
		notifV:    views.NewNotificationView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetSession(sessionName, user)
	if !vm.HasNotifications() {
		a.statusBar.SetUnread(-1)
	}
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Key:         tcell.KeyCtrlC,
		Description: "^C:quit", Visible: true,
		Handler: func() { a.Stop() },
	})
	a.registry.AddGlobal("notifications", &keys.Action{
		Key:         tcell.KeyCtrlN,
		Description: "^N:notifications", Visible: a.vm.HasNotifications(),
		Handler: func() { a.showNotifications() },
	})
	a.registry.AddView(pageNotifications, "search", &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Description: "/:search", Visible: true,
		Handler: func() { a.showSearch() },
	})
	a.registry.AddView(pageNotifications, "quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: false,
		Handler: func() { a.Stop() },
	})
	a.registry.AddView(pageNotifications, "read", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:mark read", Visible: true,
		Handler: func() { a.onSelected(a.vm.MarkRead) },
	})
	a.registry.AddView(pageNotifications, "read-all", &keys.Action{
		Rune: 'a', Key: tcell.KeyRune,
		Description: "a:read all", Visible: true,
		Handler: func() { a.run(a.vm.MarkAllRead) },
	})
	a.registry.AddView(pageNotifications, "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete", Visible: true,
		Handler: func() { a.onSelected(a.vm.Delete) },
	})
	a.registry.AddView(pageNotifications, "reload", &keys.Action{
		Rune: 'R', Key: tcell.KeyRune,
		Description: "R:reload", Visible: true,
		Handler: func() { a.run(a.vm.Reload) },
	})
}

func (a *App) setupCallbacks() {
	a.searchV.SetOnChange(a.vm.QueueSearch)
	a.searchV.Input().SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter || key == tcell.KeyTab {
			a.app.SetFocus(a.searchV.Companies())
		}
	})
	a.searchV.Companies().SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyTab {
			a.app.SetFocus(a.searchV.Jobs())
		}
	})
	a.searchV.Jobs().SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyTab {
			a.app.SetFocus(a.searchV.Input())
		}
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageSearch, a.searchV, true, true)
	a.pages.AddPage(pageNotifications, a.notifV, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.statusBar.SetHints(a.registry.Hints(pageSearch))

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case pageNotifications:
				a.showSearch()
				return nil
			case pageSearch:
				a.app.SetFocus(a.searchV.Input())
				return nil
			}
		}

		// Text input keeps every rune; only control keys reach the registry.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok && event.Key() == tcell.KeyRune {
			return event
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}
		return event
	})
}

func (a *App) showSearch() {
	a.vm.SetInteractive(false)
	a.pages.SwitchToPage(pageSearch)
	a.app.SetFocus(a.searchV.Input())
	a.statusBar.SetHints(a.registry.Hints(pageSearch))
}

func (a *App) showNotifications() {
	if !a.vm.HasNotifications() {
		a.vm.Flash.SetLevel(model.LevelWarn, model.DescribeError(model.ErrNoIdentity), model.FlashDuration)
		a.render()
		return
	}
	a.vm.SetInteractive(true)
	a.pages.SwitchToPage(pageNotifications)
	a.app.SetFocus(a.notifV)
	a.statusBar.SetHints(a.registry.Hints(pageNotifications))
}

// onSelected runs fn for the highlighted notification in the background.
func (a *App) onSelected(fn func(context.Context, dmodel.ID) error) {
	n, ok := a.notifV.Selected()
	if !ok {
		return
	}
	a.run(func(ctx context.Context) error { return fn(ctx, n.ID) })
}

// run executes a backend action off the UI goroutine. Feedback reaches
// the screen through the view model's flash and refresh signal.
func (a *App) run(fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, actionTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Warn("action failed", zap.Error(err))
		}
	}()
}

// render copies view model state into the widgets. Must run on the UI
// goroutine.
func (a *App) render() {
	a.searchV.Update(a.vm.SearchState())
	if snap, ok := a.vm.Notifications(); ok {
		a.notifV.Update(snap)
		a.statusBar.SetUnread(snap.UnreadCount)
	}
	msg, level := a.vm.Flash.Current()
	a.statusBar.SetFlash(msg, level)
}

func (a *App) startRefreshLoop() {
	// The ticker only expires flash messages.
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-a.vm.RefreshCh():
			case <-ticker.C:
			case <-a.ctx.Done():
				return
			}
			a.app.QueueUpdateDraw(a.render)
		}
	}()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	if err := a.vm.Start(); err != nil {
		return fmt.Errorf("start view model: %w", err)
	}
	defer a.vm.Stop()
	a.startRefreshLoop()
	a.render()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
