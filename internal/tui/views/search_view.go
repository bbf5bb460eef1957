package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/jobdesk/internal/search"
	"github.com/matheus3301/jobdesk/internal/tui/ui"
)

// SearchView is a search-as-you-type input over two result tables.
type SearchView struct {
	*tview.Flex
	theme     *ui.Theme
	input     *tview.InputField
	companies *tview.Table
	jobs      *tview.Table
	hint      *tview.TextView
	onChange  func(query string)
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetPlaceholder(fmt.Sprintf("type at least %d characters", search.MinQueryLength)).
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetPlaceholderTextColor(theme.MutedColor)

	hint := tview.NewTextView().SetDynamicColors(true)
	hint.SetBackgroundColor(theme.BgColor)

	sv := &SearchView{
		theme:     theme,
		input:     input,
		companies: newResultTable(theme, " Companies "),
		jobs:      newResultTable(theme, " Jobs "),
		hint:      hint,
	}
	sv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(hint, 1, 0, false).
		AddItem(sv.companies, 0, 1, false).
		AddItem(sv.jobs, 0, 1, false)

	input.SetChangedFunc(func(text string) {
		if sv.onChange != nil {
			sv.onChange(text)
		}
	})
	sv.Update(search.State{})
	return sv
}

func newResultTable(theme *ui.Theme, title string) *tview.Table {
	t := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	t.SetBorder(true)
	t.SetBorderColor(theme.BorderColor)
	t.SetBackgroundColor(theme.BgColor)
	t.SetTitle(title)
	t.SetTitleColor(theme.TitleColor)
	t.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	return t
}

// SetOnChange sets the callback run on every edit of the query.
func (sv *SearchView) SetOnChange(fn func(query string)) {
	sv.onChange = fn
}

// Update renders st.
func (sv *SearchView) Update(st search.State) {
	sv.hint.Clear()
	if msg := search.Summary(st); msg != "" {
		color := sv.theme.MutedColor
		if st.Err != nil {
			color = sv.theme.FlashErrColor
		}
		_, _ = fmt.Fprintf(sv.hint, " [%s]%s", ui.Tag(color), msg)
	}

	sv.setHeader(sv.companies, "NAME", "LOCATION")
	for i, c := range st.Result.Companies {
		sv.setRow(sv.companies, i+1, cellText(c.Name), cellText(orDash(c.Location)))
	}

	sv.setHeader(sv.jobs, "COMPANY", "TYPE", "LOCATION")
	for i, j := range st.Result.Jobs {
		loc := j.Location
		if loc == "" {
			loc = j.CompanyLocation
		}
		sv.setRow(sv.jobs, i+1, cellText(j.CompanyName), cellText(j.JobTypeName), cellText(orDash(loc)))
	}
}

func (sv *SearchView) setHeader(t *tview.Table, headers ...string) {
	t.Clear()
	for col, h := range headers {
		t.SetCell(0, col, tview.NewTableCell(" "+h).
			SetSelectable(false).
			SetExpansion(1).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}
}

func (sv *SearchView) setRow(t *tview.Table, row int, cols ...string) {
	for col, text := range cols {
		t.SetCell(row, col, tview.NewTableCell(" "+text).
			SetExpansion(1).
			SetMaxWidth(40).
			SetTextColor(sv.theme.FgColor))
	}
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Companies returns the company results table.
func (sv *SearchView) Companies() *tview.Table {
	return sv.companies
}

// Jobs returns the job results table.
func (sv *SearchView) Jobs() *tview.Table {
	return sv.jobs
}
