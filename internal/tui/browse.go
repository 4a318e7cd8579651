// ABOUTME: Interactive bubbletea browser for the post feed with posts and favorites tabs.
// ABOUTME: Drives PostsState for loading, infinite scroll, search, favorites, and detail views.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/postbox/internal/feed"
	"github.com/2389-research/postbox/internal/models"
)

// Tab selects which list the browser shows.
type Tab int

const (
	TabPosts Tab = iota
	TabFavorites
)

const (
	shimmerInterval = 120 * time.Millisecond
	defaultRows     = 10
)

// StateChangedMsg tells the browser to re-read the feed. It carries no data so
// that out-of-order delivery can never show a stale snapshot.
type StateChangedMsg struct{}

// feedDoneMsg marks the end of a fetch started by the browser.
type feedDoneMsg struct {
	err error
}

type shimmerTickMsg time.Time

// BrowseModel is the bubbletea model for browsing posts.
type BrowseModel struct {
	state *feed.PostsState
	ctx   context.Context
	snap  feed.Snapshot

	tab        Tab
	cursor     int
	offset     int
	favCursor  int
	favGrid    bool
	loaded     bool
	shimmer    int
	ticking    bool
	detailID   int
	showDetail bool
	editing    bool

	search    textinput.Model
	favSearch textinput.Model
	spinner   spinner.Model
	width     int
	height    int
}

// NewBrowseModel creates a browser over state. ctx bounds every fetch the
// browser starts.
func NewBrowseModel(ctx context.Context, state *feed.PostsState) BrowseModel {
	search := textinput.New()
	search.Placeholder = "Search titles"
	search.Prompt = "/ "
	search.Width = 40

	favSearch := textinput.New()
	favSearch.Placeholder = "Search favorites"
	favSearch.Prompt = "/ "
	favSearch.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot

	return BrowseModel{
		state:     state,
		ctx:       ctx,
		snap:      state.Snapshot(),
		search:    search,
		favSearch: favSearch,
		spinner:   s,
	}
}

// Subscribe forwards feed changes to p. Sends happen off the calling goroutine
// because PostsState notifies synchronously, sometimes from inside Update.
func Subscribe(p *tea.Program, state *feed.PostsState) func() {
	return state.Subscribe(func(feed.Snapshot) {
		go p.Send(StateChangedMsg{})
	})
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), shimmerTick(), m.spinner.Tick)
}

func shimmerTick() tea.Cmd {
	return tea.Tick(shimmerInterval, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

func (m BrowseModel) fetchCmd() tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		return feedDoneMsg{err: state.FetchPosts(ctx)}
	}
}

func (m BrowseModel) refreshCmd() tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		return feedDoneMsg{err: state.RefreshPosts(ctx)}
	}
}

func (m BrowseModel) loadMoreCmd() tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		return feedDoneMsg{err: state.LoadMorePosts(ctx)}
	}
}

func (m BrowseModel) retryPaginationCmd() tea.Cmd {
	state, ctx := m.state, m.ctx
	return func() tea.Msg {
		return feedDoneMsg{err: state.RetryPagination(ctx)}
	}
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollToCursor()
		return m, m.maybeLoadMore()

	case feedDoneMsg:
		m.loaded = true
		m.sync()
		return m, m.maybeLoadMore()

	case StateChangedMsg:
		m.sync()
		return m, nil

	case shimmerTickMsg:
		if !m.shimmering() {
			m.ticking = false
			return m, nil
		}
		m.shimmer++
		m.ticking = true
		return m, shimmerTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		if m.showDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

// sync re-reads the feed and keeps the cursors in range.
func (m *BrowseModel) sync() {
	m.snap = m.state.Snapshot()
	last := len(m.snap.Filtered) - 1
	if m.snap.PaginationError != "" {
		last++
	}
	m.cursor = clamp(m.cursor, 0, max(last, 0))
	m.favCursor = clamp(m.favCursor, 0, max(len(m.favorites())-1, 0))
	m.scrollToCursor()
}

func (m BrowseModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	input := &m.search
	if m.tab == TabFavorites {
		input = &m.favSearch
	}

	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		input.Blur()
		return m, m.maybeLoadMore()
	case tea.KeyEscape:
		m.editing = false
		input.Blur()
		input.SetValue("")
		m.applySearch()
		return m, m.maybeLoadMore()
	}

	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	m.applySearch()
	return m, cmd
}

func (m *BrowseModel) applySearch() {
	if m.tab == TabFavorites {
		m.favCursor = 0
		return
	}
	m.cursor = 0
	m.offset = 0
	m.state.SetSearchText(m.search.Value())
	m.sync()
}

func (m BrowseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.showDetail = false
	case "f":
		if post, ok := m.state.Post(m.detailID); ok {
			m.state.ToggleFavorite(post)
			m.sync()
		}
	}
	return m, nil
}

func (m BrowseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		if m.tab == TabPosts {
			m.tab = TabFavorites
		} else {
			m.tab = TabPosts
		}
		return m, nil

	case "/":
		m.editing = true
		if m.tab == TabFavorites {
			return m, m.favSearch.Focus()
		}
		return m, m.search.Focus()

	case "j", "down":
		m.move(1)
		return m, m.maybeLoadMore()

	case "k", "up":
		m.move(-1)
		return m, nil

	case "g":
		if m.tab == TabFavorites {
			m.favGrid = !m.favGrid
		}
		return m, nil

	case "f":
		if post, ok := m.selected(); ok {
			m.state.ToggleFavorite(post)
			m.sync()
		}
		return m, nil

	case "r":
		if m.snap.IsLoading {
			return m, nil
		}
		m.loaded = false
		m.snap.IsLoading = true
		return m, m.startLoading(m.refreshCmd())

	case "enter":
		if m.onPaginationErrorRow() {
			return m, m.retryPaginationCmd()
		}
		if post, ok := m.selected(); ok {
			m.detailID = post.ID
			m.showDetail = true
		}
		return m, nil
	}

	return m, nil
}

// startLoading runs cmd and restarts the shimmer animation if it stopped.
func (m *BrowseModel) startLoading(cmd tea.Cmd) tea.Cmd {
	if m.ticking {
		return cmd
	}
	m.ticking = true
	return tea.Batch(cmd, shimmerTick())
}

func (m *BrowseModel) move(delta int) {
	if m.tab == TabFavorites {
		step := delta
		if m.favGrid {
			step = delta * m.gridColumns()
		}
		m.favCursor = clamp(m.favCursor+step, 0, max(len(m.favorites())-1, 0))
		return
	}
	last := len(m.snap.Filtered) - 1
	if m.snap.PaginationError != "" {
		last++
	}
	m.cursor = clamp(m.cursor+delta, 0, max(last, 0))
	m.scrollToCursor()
}

func (m *BrowseModel) scrollToCursor() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = clamp(m.offset, 0, max(len(m.snap.Filtered)-1, 0))
}

// maybeLoadMore asks for the next page when the last visible post is near the
// end of the list.
func (m BrowseModel) maybeLoadMore() tea.Cmd {
	if m.tab != TabPosts || !m.loaded || len(m.snap.Filtered) == 0 {
		return nil
	}
	last := min(m.offset+m.visibleRows(), len(m.snap.Filtered)) - 1
	if last < 0 || !m.state.ShouldLoadMore(m.snap.Filtered[last]) {
		return nil
	}
	return m.loadMoreCmd()
}

func (m BrowseModel) visibleRows() int {
	if m.height <= 0 {
		return defaultRows
	}
	return max(m.height-8, 3)
}

func (m BrowseModel) gridColumns() int {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return max(width/(gridCardWidth+2), 1)
}

func (m BrowseModel) favorites() []models.Post {
	return m.state.SearchFavorites(m.favSearch.Value())
}

func (m BrowseModel) selected() (models.Post, bool) {
	if m.tab == TabFavorites {
		favs := m.favorites()
		if m.favCursor < len(favs) {
			return favs[m.favCursor], true
		}
		return models.Post{}, false
	}
	if m.cursor < len(m.snap.Filtered) {
		return m.snap.Filtered[m.cursor], true
	}
	return models.Post{}, false
}

func (m BrowseModel) onPaginationErrorRow() bool {
	return m.tab == TabPosts && m.snap.PaginationError != "" && m.cursor == len(m.snap.Filtered)
}

// shimmering reports whether placeholder cards replace the list.
func (m BrowseModel) shimmering() bool {
	return m.snap.IsLoading || (!m.loaded && m.snap.ErrorMessage == "")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
