// ABOUTME: Rendering for the post browser: tabs, post rows, cards, detail, and shimmer placeholders.
// ABOUTME: Pure functions of BrowseModel; all styling goes through lipgloss.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/postbox/internal/models"
)

const (
	shimmerCards  = 6
	gridCardWidth = 24
	listCardWidth = 60
)

var (
	activeTabStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Underline(true)
	inactiveTabStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	heartStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	selectedCardStyle = cardStyle.BorderForeground(lipgloss.Color("99"))

	// shimmerPalette sweeps across the placeholder cards to animate them.
	shimmerPalette = []lipgloss.Color{"236", "237", "238", "239", "240", "239", "238", "237"}
)

// View implements tea.Model.
func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   POSTBOX"))
	b.WriteString("  ")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	if m.showDetail {
		b.WriteString(m.detailView())
		return b.String()
	}

	if m.tab == TabFavorites {
		b.WriteString(m.favoritesView())
	} else {
		b.WriteString(m.postsView())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m BrowseModel) tabsView() string {
	posts := fmt.Sprintf("Posts (%d)", len(m.snap.Items))
	favs := fmt.Sprintf("Favorites (%d)", len(m.snap.Favorites))
	if m.tab == TabPosts {
		return activeTabStyle.Render(posts) + "  " + inactiveTabStyle.Render(favs)
	}
	return inactiveTabStyle.Render(posts) + "  " + activeTabStyle.Render(favs)
}

func (m BrowseModel) helpLine() string {
	if m.editing {
		return "enter apply  esc clear"
	}
	if m.tab == TabFavorites {
		return "j/k move  enter open  f unfavorite  g grid/list  / search  tab posts  q quit"
	}
	return "j/k move  enter open  f favorite  / search  r refresh  tab favorites  q quit"
}

func (m BrowseModel) searchLine(input string, editing bool, value string) string {
	if editing {
		return input + "\n\n"
	}
	if value != "" {
		return dimStyle.Render(fmt.Sprintf("filter: %q", value)) + "\n\n"
	}
	return ""
}

func (m BrowseModel) postsView() string {
	var b strings.Builder
	b.WriteString(m.searchLine(m.search.View(), m.editing, m.snap.SearchText))

	if m.shimmering() {
		b.WriteString(dimStyle.Render("Loading posts..."))
		b.WriteString("\n")
		b.WriteString(m.shimmerList())
		return b.String()
	}

	if m.snap.ErrorMessage != "" && len(m.snap.Items) == 0 {
		b.WriteString(errorStyle.Render("✗ " + m.snap.ErrorMessage))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [q]uit"))
		b.WriteString("\n")
		return b.String()
	}
	if m.snap.ErrorMessage != "" {
		b.WriteString(errorStyle.Render("Refresh failed: " + m.snap.ErrorMessage))
		b.WriteString("\n\n")
	}

	if len(m.snap.Filtered) == 0 {
		if m.snap.SearchText != "" {
			b.WriteString(dimStyle.Render("No posts match your search."))
		} else {
			b.WriteString(dimStyle.Render("No posts yet."))
		}
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.visibleRows(), len(m.snap.Filtered))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.postRow(m.snap.Filtered[i], i == m.cursor))
		b.WriteString("\n")
	}

	switch {
	case m.snap.IsLoadingMore:
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading more...\n")
	case m.snap.PaginationError != "":
		row := fmt.Sprintf("Couldn't load more: %s  [enter] retry", m.snap.PaginationError)
		if m.onPaginationErrorRow() {
			b.WriteString(selectedStyle.Render("▸ " + row))
		} else {
			b.WriteString(errorStyle.Render("  " + row))
		}
		b.WriteString("\n")
	case !m.snap.HasMorePosts && m.snap.SearchText == "":
		b.WriteString(dimStyle.Render("  No more posts"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowseModel) postRow(post models.Post, selected bool) string {
	heart := " "
	if m.snap.IsFavorite(post.ID) {
		heart = heartStyle.Render("♥")
	}
	line := fmt.Sprintf("#%-4d %s", post.ID, truncate(post.Title, listCardWidth))
	if selected {
		return selectedStyle.Render("▸ "+line) + " " + heart
	}
	return "  " + line + " " + heart
}

func (m BrowseModel) favoritesView() string {
	var b strings.Builder
	b.WriteString(m.searchLine(m.favSearch.View(), m.editing, m.favSearch.Value()))

	if m.shimmering() {
		if m.favGrid {
			b.WriteString(m.shimmerGrid())
		} else {
			b.WriteString(m.shimmerList())
		}
		return b.String()
	}

	favs := m.favorites()
	if len(favs) == 0 {
		if m.favSearch.Value() != "" {
			b.WriteString(dimStyle.Render("No favorites match your search."))
		} else {
			b.WriteString(dimStyle.Render("No favorites yet. Press f on a post to add one."))
		}
		b.WriteString("\n")
		return b.String()
	}

	if m.favGrid {
		b.WriteString(m.favoritesGrid(favs))
		b.WriteString("\n")
		return b.String()
	}

	for i, post := range favs {
		b.WriteString(m.postRow(post, i == m.favCursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowseModel) favoritesGrid(favs []models.Post) string {
	cols := m.gridColumns()
	var rows []string
	for start := 0; start < len(favs); start += cols {
		var cards []string
		for i := start; i < min(start+cols, len(favs)); i++ {
			style := cardStyle
			if i == m.favCursor {
				style = selectedCardStyle
			}
			body := fmt.Sprintf("%s\n%s",
				truncate(favs[i].Title, gridCardWidth-6),
				dimStyle.Render(fmt.Sprintf("#%d", favs[i].ID)))
			cards = append(cards, style.Width(gridCardWidth).Render(body))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m BrowseModel) detailView() string {
	post, ok := m.state.Post(m.detailID)
	if !ok {
		return dimStyle.Render("This post is no longer loaded.") + "\n\n" + dimStyle.Render("esc back") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(post.Title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(listCardWidth + 10).Render(post.Body))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Post ID #%d   User ID #%d", post.ID, post.UserID)))
	if m.snap.IsFavorite(post.ID) {
		b.WriteString("  ")
		b.WriteString(heartStyle.Render("♥ favorite"))
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("f favorite  esc back"))
	b.WriteString("\n")
	return b.String()
}

// shimmerBar renders a placeholder bar whose shade depends on the frame.
func (m BrowseModel) shimmerBar(index, width int) string {
	color := shimmerPalette[(m.shimmer+index)%len(shimmerPalette)]
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", width))
}

func (m BrowseModel) shimmerList() string {
	cards := make([]string, shimmerCards)
	for i := range cards {
		body := m.shimmerBar(i, listCardWidth-20) + "\n" + m.shimmerBar(i+1, listCardWidth-8)
		cards[i] = cardStyle.Width(listCardWidth).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m BrowseModel) shimmerGrid() string {
	cols := m.gridColumns()
	var rows []string
	for start := 0; start < shimmerCards; start += cols {
		var cards []string
		for i := start; i < min(start+cols, shimmerCards); i++ {
			body := m.shimmerBar(i, gridCardWidth-8) + "\n" + m.shimmerBar(i+1, gridCardWidth-12)
			cards = append(cards, cardStyle.Width(gridCardWidth).Render(body))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
