// Package ui holds presentation constants shared by the views.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor         tcell.Color
	FgColor         tcell.Color
	MutedColor      tcell.Color
	BorderColor     tcell.Color
	TableHeaderFg   tcell.Color
	TableHeaderBg   tcell.Color
	TableCursorFg   tcell.Color
	TableCursorBg   tcell.Color
	MenuKeyColor    tcell.Color
	TitleColor      tcell.Color
	UnreadColor     tcell.Color
	BadgeColor      tcell.Color
	FlashInfoColor  tcell.Color
	FlashWarnColor  tcell.Color
	FlashErrColor   tcell.Color
	StatusOKColor   tcell.Color
	StatusWarnColor tcell.Color
}

// DefaultTheme returns a dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:         tcell.ColorBlack,
		FgColor:         tcell.ColorCadetBlue,
		MutedColor:      tcell.ColorGray,
		BorderColor:     tcell.ColorDodgerBlue,
		TableHeaderFg:   tcell.ColorWhite,
		TableHeaderBg:   tcell.ColorBlack,
		TableCursorFg:   tcell.ColorBlack,
		TableCursorBg:   tcell.ColorAqua,
		MenuKeyColor:    tcell.ColorDodgerBlue,
		TitleColor:      tcell.ColorFuchsia,
		UnreadColor:     tcell.ColorWhite,
		BadgeColor:      tcell.ColorOrangeRed,
		FlashInfoColor:  tcell.ColorNavajoWhite,
		FlashWarnColor:  tcell.ColorOrange,
		FlashErrColor:   tcell.ColorOrangeRed,
		StatusOKColor:   tcell.ColorGreen,
		StatusWarnColor: tcell.ColorOrange,
	}
}

// Tag returns a tview color tag for c, e.g. "#ff4500".
func Tag(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
