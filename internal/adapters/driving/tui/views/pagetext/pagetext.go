// Package pagetext provides the full-page OCR text view for the TUI.
package pagetext

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/archivist-labs/pagefill/internal/adapters/driving/tui/messages"
	"github.com/archivist-labs/pagefill/internal/adapters/driving/tui/styles"
	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
)

// View is the page text view. It loads the full OCR text of one page
// and scrolls through it.
type View struct {
	styles      *styles.Styles
	pageService driving.PageService

	result       *domain.SearchResult
	page         *domain.Page
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new page text view.
func NewView(s *styles.Styles, pageService driving.PageService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:      s,
		pageService: pageService,
		width:       80,
		height:      24,
	}
}

// SetResult sets the search result whose page should be shown and
// starts loading its text.
func (v *View) SetResult(result domain.SearchResult) tea.Cmd {
	v.result = &result
	v.page = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadPage()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadPage returns a command that loads the page.
func (v *View) loadPage() tea.Cmd {
	return func() tea.Msg {
		if v.result == nil || v.pageService == nil {
			return messages.PageLoaded{Err: fmt.Errorf("page service not available")}
		}

		page, err := v.pageService.Get(context.Background(), v.result.ID)
		return messages.PageLoaded{
			PageID: v.result.ID,
			Page:   page,
			Err:    err,
		}
	}
}

// Update handles messages for the page text view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		v.wrapContent()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PageLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.page = msg.Page
			v.wrapContent()
			v.err = nil
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset -= v.visibleLines()
		if v.scrollOffset < 0 {
			v.scrollOffset = 0
		}
	case "pgdown", "ctrl+d":
		v.scrollOffset += v.visibleLines()
		if max := v.maxScrollOffset(); v.scrollOffset > max {
			v.scrollOffset = max
		}
	case "g":
		v.scrollOffset = 0
	case "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}
	return v, nil
}

// wrapContent re-wraps the page text to the current width.
func (v *View) wrapContent() {
	v.lines = nil
	if v.page == nil || v.page.OCRResult == nil {
		return
	}

	wrapWidth := v.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	for _, paragraph := range strings.Split(*v.page.OCRResult, "\n") {
		v.lines = append(v.lines, wrapLine(paragraph, wrapWidth)...)
	}
}

// wrapLine breaks one line into width-bounded chunks at word borders.
func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var wrapped []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			wrapped = append(wrapped, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(wrapped, current)
}

func (v *View) visibleLines() int {
	// Header, separator and footer take five rows.
	visible := v.height - 5
	if visible < 1 {
		visible = 1
	}
	return visible
}

func (v *View) maxScrollOffset() int {
	max := len(v.lines) - v.visibleLines()
	if max < 0 {
		return 0
	}
	return max
}

// View renders the page text view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	title := "Page"
	if v.result != nil {
		title = fmt.Sprintf("Record %s, page %s", v.result.ParentRecordID, v.result.PageNumber)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("No OCR text available."))
	default:
		if v.page != nil && v.page.Error {
			b.WriteString(v.styles.Warning.Render("This page is flagged with a processing error."))
			b.WriteString("\n\n")
		}

		end := v.scrollOffset + v.visibleLines()
		if end > len(v.lines) {
			end = len(v.lines)
		}
		b.WriteString(strings.Join(v.lines[v.scrollOffset:end], "\n"))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("[j/k] Scroll  [g/G] Top/Bottom  [esc] Back"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// ScrollOffset returns the current scroll position.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
