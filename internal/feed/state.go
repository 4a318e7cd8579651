// ABOUTME: Session state for the paginated post feed: items, cursor, busy flags, favorites.
// ABOUTME: Orchestrates initial load, load-more, and refresh over an injected Fetcher.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389-research/postbox/internal/models"
	"github.com/2389-research/postbox/internal/remote"
)

// DefaultPageSize is the number of posts requested per page.
const DefaultPageSize = 10

// PostsState owns the in-memory feed for one session.
//
// Fetches run without holding the lock. The busy flags are checked and set
// under the lock, so overlapping callers are rejected rather than serialized.
type PostsState struct {
	mu      sync.Mutex
	fetcher remote.Fetcher
	logger  *slog.Logger

	session context.Context
	cancel  context.CancelFunc
	closed  bool

	items       []models.Post
	favoriteIDs map[int]struct{}
	searchText  string

	currentPage  int
	pageSize     int
	hasMorePosts bool

	isLoading              bool
	isLoadingMore          bool
	isPaginationInProgress bool

	errorMessage    string
	paginationError string

	// loadGen increments on every initial load so stale completions can be dropped.
	loadGen uint64

	subscribers map[int]func(Snapshot)
	nextSubID   int
	// notifyMu orders deliveries so the last snapshot a subscriber sees is
	// the newest. Taken before mu, never while holding it.
	notifyMu sync.Mutex
}

// Option configures a PostsState.
type Option func(*PostsState)

// WithPageSize sets the page size. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(s *PostsState) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *PostsState) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPostsState creates an empty feed backed by fetcher.
func NewPostsState(fetcher remote.Fetcher, opts ...Option) *PostsState {
	session, cancel := context.WithCancel(context.Background())
	s := &PostsState{
		fetcher:      fetcher,
		logger:       slog.New(slog.DiscardHandler),
		session:      session,
		cancel:       cancel,
		favoriteIDs:  make(map[int]struct{}),
		currentPage:  1,
		pageSize:     DefaultPageSize,
		hasMorePosts: true,
		subscribers:  make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", uuid.NewString()[:8])
	return s
}

// FetchPosts loads the first page, replacing the current items on success.
// Failures are recorded in ErrorMessage and also returned.
func (s *PostsState) FetchPosts(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return context.Canceled
	}
	s.loadGen++
	gen := s.loadGen
	s.isLoading = true
	s.errorMessage = ""
	s.currentPage = 1
	s.hasMorePosts = true
	pageSize := s.pageSize
	s.mu.Unlock()
	s.notify()

	posts, err := s.fetch(ctx, 1, pageSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return context.Canceled
	}
	if gen != s.loadGen {
		// A newer initial load owns the state now.
		s.mu.Unlock()
		return err
	}
	s.isLoading = false
	switch {
	case err == nil:
		s.items = posts
		s.currentPage = 2
		s.hasMorePosts = len(posts) == pageSize
		s.logger.DebugContext(ctx, "loaded first page", "count", len(posts), "has_more", s.hasMorePosts)
	case isAbandoned(ctx, err):
		s.logger.DebugContext(ctx, "initial load abandoned", "error", err)
	default:
		s.errorMessage = remote.Describe(err)
		s.logger.WarnContext(ctx, "initial load failed", "error", err)
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// RefreshPosts reruns the initial load.
func (s *PostsState) RefreshPosts(ctx context.Context) error {
	return s.FetchPosts(ctx)
}

// LoadMorePosts appends the next page. It is a no-op while another
// incremental load is in flight or when the last page has been reached.
func (s *PostsState) LoadMorePosts(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.isLoadingMore || s.isPaginationInProgress || !s.hasMorePosts {
		s.mu.Unlock()
		return nil
	}
	s.isPaginationInProgress = true
	s.isLoadingMore = true
	s.paginationError = ""
	page := s.currentPage
	pageSize := s.pageSize
	gen := s.loadGen
	// A page requested while an initial load is running would be read from
	// the cursor that load just reset.
	duringReload := s.isLoading
	s.mu.Unlock()
	s.notify()

	posts, err := s.fetch(ctx, page, pageSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return context.Canceled
	}
	s.isLoadingMore = false
	s.isPaginationInProgress = false
	switch {
	case gen != s.loadGen || duringReload:
		s.logger.DebugContext(ctx, "dropping page fetched across a reload", "page", page)
	case err == nil:
		s.items = append(s.items, posts...)
		s.currentPage = page + 1
		s.hasMorePosts = len(posts) == pageSize
		s.logger.DebugContext(ctx, "loaded page", "page", page, "count", len(posts), "has_more", s.hasMorePosts)
	case isAbandoned(ctx, err):
		s.logger.DebugContext(ctx, "pagination abandoned", "page", page, "error", err)
	default:
		s.paginationError = remote.Describe(err)
		s.logger.WarnContext(ctx, "pagination failed", "page", page, "error", err)
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// RetryPagination is LoadMorePosts under the name used by retry affordances.
func (s *PostsState) RetryPagination(ctx context.Context) error {
	return s.LoadMorePosts(ctx)
}

// Close cancels in-flight fetches and discards their results.
func (s *PostsState) Close() {
	s.mu.Lock()
	s.closed = true
	s.subscribers = map[int]func(Snapshot){}
	s.mu.Unlock()
	s.cancel()
}

// fetch runs the fetcher under a context that also ends when the session closes.
func (s *PostsState) fetch(ctx context.Context, page, limit int) ([]models.Post, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.session, cancel)
	defer stop()
	return s.fetcher.FetchPage(ctx, page, limit)
}

// isAbandoned reports whether a failure came from cancellation and must stay invisible.
func isAbandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil || remote.IsCanceled(err)
}
