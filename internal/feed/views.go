// ABOUTME: Derived read views over the feed: search filtering, favorites, and snapshots.
// ABOUTME: Also holds favorite toggling and the infinite-scroll trigger predicate.
package feed

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/2389-research/postbox/internal/models"
)

// loadMoreThreshold is how close to the end of the list a visible post must be
// to trigger the next page.
const loadMoreThreshold = 3

// Snapshot is an immutable copy of the feed state.
type Snapshot struct {
	Items     []models.Post
	Filtered  []models.Post
	Favorites []models.Post

	SearchText  string
	CurrentPage int
	PageSize    int

	HasMorePosts           bool
	IsLoading              bool
	IsLoadingMore          bool
	IsPaginationInProgress bool

	ErrorMessage    string
	PaginationError string
}

// IsFavorite reports whether id is among the snapshot's favorites.
func (s Snapshot) IsFavorite(id int) bool {
	for _, p := range s.Favorites {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current state.
func (s *PostsState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *PostsState) snapshotLocked() Snapshot {
	return Snapshot{
		Items:                  append([]models.Post(nil), s.items...),
		Filtered:               s.filteredLocked(),
		Favorites:              s.favoritesLocked(),
		SearchText:             s.searchText,
		CurrentPage:            s.currentPage,
		PageSize:               s.pageSize,
		HasMorePosts:           s.hasMorePosts,
		IsLoading:              s.isLoading,
		IsLoadingMore:          s.isLoadingMore,
		IsPaginationInProgress: s.isPaginationInProgress,
		ErrorMessage:           s.errorMessage,
		PaginationError:        s.paginationError,
	}
}

// Subscribe registers fn to receive a snapshot after every change.
// Deliveries are serialized and arrive in the order the snapshots were
// taken. fn runs synchronously and must not call back into the state.
// The returned function unregisters it.
func (s *PostsState) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// notify delivers a snapshot to subscribers. Must be called without the lock held.
func (s *PostsState) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if len(s.subscribers) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Items returns the loaded posts in fetch order.
func (s *PostsState) Items() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post(nil), s.items...)
}

// Post returns the loaded post with the given id.
func (s *PostsState) Post(id int) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.items {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// SearchText returns the current filter.
func (s *PostsState) SearchText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchText
}

// SetSearchText sets the filter applied by FilteredPosts. Empty disables filtering.
func (s *PostsState) SetSearchText(text string) {
	s.mu.Lock()
	changed := s.searchText != text
	s.searchText = text
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// FilteredPosts returns the items whose title contains the search text,
// ignoring case. With no search text it returns every item.
func (s *PostsState) FilteredPosts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked()
}

func (s *PostsState) filteredLocked() []models.Post {
	if s.searchText == "" {
		return append([]models.Post(nil), s.items...)
	}
	query := fold(s.searchText)
	out := make([]models.Post, 0, len(s.items))
	for _, p := range s.items {
		if strings.Contains(fold(p.Title), query) {
			out = append(out, p)
		}
	}
	return out
}

// ToggleFavorite flips the favorite mark on post.
func (s *PostsState) ToggleFavorite(post models.Post) {
	s.mu.Lock()
	if _, ok := s.favoriteIDs[post.ID]; ok {
		delete(s.favoriteIDs, post.ID)
	} else {
		s.favoriteIDs[post.ID] = struct{}{}
	}
	s.mu.Unlock()
	s.notify()
}

// IsFavorite reports whether post is marked as a favorite.
func (s *PostsState) IsFavorite(post models.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favoriteIDs[post.ID]
	return ok
}

// FavoriteCount returns the number of favorited ids, loaded or not.
func (s *PostsState) FavoriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.favoriteIDs)
}

// FavoritePosts returns the loaded posts marked as favorites, in item order.
func (s *PostsState) FavoritePosts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoritesLocked()
}

func (s *PostsState) favoritesLocked() []models.Post {
	out := make([]models.Post, 0, len(s.favoriteIDs))
	for _, p := range s.items {
		if _, ok := s.favoriteIDs[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SearchFavorites filters the favorites by title or body, ignoring case.
func (s *PostsState) SearchFavorites(query string) []models.Post {
	favorites := s.FavoritePosts()
	if query == "" {
		return favorites
	}
	q := fold(query)
	out := make([]models.Post, 0, len(favorites))
	for _, p := range favorites {
		if strings.Contains(fold(p.Title), q) || strings.Contains(fold(p.Body), q) {
			out = append(out, p)
		}
	}
	return out
}

// ShouldLoadMore reports whether showing post should trigger the next page:
// no search is active, more pages exist, nothing is loading, and post is
// among the last few entries of the filtered list.
func (s *PostsState) ShouldLoadMore(post models.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchText != "" || !s.hasMorePosts || s.isLoading || s.isLoadingMore || s.isPaginationInProgress {
		return false
	}
	filtered := s.filteredLocked()
	index := -1
	for i, p := range filtered {
		if p.ID == post.ID {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}
	return index >= max(0, len(filtered)-loadMoreThreshold)
}

// fold applies Unicode case folding for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}
