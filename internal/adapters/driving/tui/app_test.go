package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/pagefill/internal/adapters/driving/tui/messages"
	"github.com/archivist-labs/pagefill/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Search: &MockSearchService{},
		Pages:  &MockPageService{},
	}
}

// goToSearchView navigates the app from menu to search view for testing.
func goToSearchView(app *App) {
	app.SetDimensions(80, 24)
	// Send ViewChanged to go to search view (simulates selecting Search from menu)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})
}

func TestNewApp_Success(t *testing.T) {
	ports := newTestPorts()

	app, err := NewApp(ports)

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	ports := &Ports{
		Search: nil,
		Pages:  &MockPageService{},
	}

	app, err := NewApp(ports)

	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")
	result := app.WithContext(ctx)

	assert.Equal(t, app, result)
}

func TestApp_Init(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	cmd := app.Init()

	// Init returns a batch command
	assert.NotNil(t, cmd)
}

func TestApp_Update_WindowSize(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	msg := tea.WindowSizeMsg{Width: 80, Height: 24}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_Update_TypingSetsQuery(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	goToSearchView(app)

	// Query is synced from searchView after key input
	for _, r := range "test" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "test", app.Query())
}

func TestApp_Update_SearchCompleted(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	results := []domain.SearchResult{
		{ID: "page-1", ParentRecordID: "rec-1", PageNumber: "1", Similarity: 0.9},
	}
	msg := messages.SearchCompleted{Results: results, Err: nil}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.Len(t, app.Results(), 1)
}

func TestApp_Update_SearchCompleted_WithError(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	err := errors.New("search failed")
	msg := messages.SearchCompleted{Results: nil, Err: err}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.Error(t, app.Err())
}

func TestApp_Update_ViewChanged(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	msg := messages.ViewChanged{View: messages.ViewHelp}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
}

func TestApp_Update_ViewChanged_SearchResets(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	goToSearchView(app)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	require.Equal(t, "x", app.Query())

	// Leaving and re-entering the search view clears the query
	app.Update(messages.ViewChanged{View: messages.ViewMenu})
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	assert.Empty(t, app.searchView.Query())
}

func TestApp_Update_ResultSelected(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)

	result := domain.SearchResult{ID: "page-1", ParentRecordID: "rec-1", PageNumber: "3"}
	model, cmd := app.Update(messages.ResultSelected{Result: result})

	assert.Equal(t, app, model)
	// SetResult returns the page load command
	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewPageText, app.CurrentView())
	require.NotNil(t, app.SelectedResult())
	assert.Equal(t, "page-1", app.SelectedResult().ID)
}

func TestApp_Update_PageLoaded(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)
	app.Update(messages.ResultSelected{Result: domain.SearchResult{ID: "page-1"}})

	text := "Full page text"
	msg := messages.PageLoaded{
		PageID: "page-1",
		Page:   &domain.Page{ID: "page-1", OCRResult: &text},
	}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
}

func TestApp_Update_ErrorOccurred(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	err := errors.New("something went wrong")
	msg := messages.ErrorOccurred{Err: err}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.Error(t, app.Err())
}

func TestApp_Update_KeyMsg_Quit(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)

	// 'q' from the menu view quits
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.NotNil(t, cmd)
}

func TestApp_Update_KeyMsg_CtrlC(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	msg := tea.KeyMsg{Type: tea.KeyCtrlC}
	model, cmd := app.Update(msg)

	assert.Equal(t, app, model)
	assert.NotNil(t, cmd)
}

func TestApp_Update_KeyMsg_NavigateResults(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	goToSearchView(app)

	// Completing a search moves focus to results mode
	app.Update(messages.SearchCompleted{
		Results: []domain.SearchResult{
			{ID: "page-1", PageNumber: "1"},
			{ID: "page-2", PageNumber: "2"},
		},
	})

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.NotNil(t, app.searchView.SelectedResult())
	assert.Equal(t, "page-2", app.searchView.SelectedResult().ID)

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "page-1", app.searchView.SelectedResult().ID)
}

func TestApp_Update_KeyMsg_EscFromHelp(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	msg := tea.KeyMsg{Type: tea.KeyEsc}
	app.Update(msg)

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Update_QuitMessage(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	model, cmd := app.Update(messages.Quit{})

	assert.Equal(t, app, model)
	assert.NotNil(t, cmd)
}

func TestApp_View_NotReady(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)

	view := app.View()

	assert.Contains(t, view, "Initialising")
}

func TestApp_View_Menu(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)
	app.menuView.SetDimensions(80, 24)

	view := app.View()

	assert.Contains(t, view, "Search")
}

func TestApp_View_Search(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	goToSearchView(app)

	view := app.View()

	assert.Contains(t, view, "Pagefill")
}

func TestApp_View_Help(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	view := app.View()

	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "ctrl+c")
}

func TestApp_View_PageText(t *testing.T) {
	ports := newTestPorts()
	app, _ := NewApp(ports)
	app.SetDimensions(80, 24)
	app.pageTextView.SetDimensions(80, 24)
	app.Update(messages.ResultSelected{
		Result: domain.SearchResult{ID: "page-1", ParentRecordID: "rec-1", PageNumber: "3"},
	})

	text := "OCR text body"
	app.Update(messages.PageLoaded{PageID: "page-1", Page: &domain.Page{ID: "page-1", OCRResult: &text}})

	view := app.View()

	assert.Contains(t, view, "rec-1")
	assert.Contains(t, view, "OCR text body")
}
