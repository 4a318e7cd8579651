// ABOUTME: Scriptable in-memory Fetcher for tests of code that consumes remote pages.
// ABOUTME: Serves a simulated collection, injects errors, and can block fetches on a gate.
package remotetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/2389-research/postbox/internal/models"
)

// Call records one FetchPage invocation.
type Call struct {
	Page  int
	Limit int
}

// Fetcher serves pages from a simulated collection of Total posts unless a
// page is overridden in Pages. Errs injects a failure for a specific page.
type Fetcher struct {
	Total int
	Pages map[int][]models.Post
	Errs  map[int]error

	// Gate, when set, blocks every fetch until it receives or is closed.
	Gate chan struct{}
	// Started, when set, receives the page number as each fetch begins.
	Started chan int

	mu    sync.Mutex
	calls []Call
}

// New returns a fetcher over a collection of total posts.
func New(total int) *Fetcher {
	return &Fetcher{
		Total: total,
		Pages: map[int][]models.Post{},
		Errs:  map[int]error{},
	}
}

// FetchPage implements remote.Fetcher.
func (f *Fetcher) FetchPage(ctx context.Context, page, limit int) ([]models.Post, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Page: page, Limit: limit})
	f.mu.Unlock()

	if f.Started != nil {
		f.Started <- page
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errs[page]; ok && err != nil {
		return nil, err
	}
	if posts, ok := f.Pages[page]; ok {
		return append([]models.Post(nil), posts...), nil
	}
	start := (page-1)*limit + 1
	end := min(start+limit-1, f.Total)
	if start > end {
		return []models.Post{}, nil
	}
	return MakePosts(start, end-start+1), nil
}

// SetError makes page fail with err until cleared with a nil err.
func (f *Fetcher) SetError(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errs, page)
		return
	}
	f.Errs[page] = err
}

// Calls returns the recorded invocations.
func (f *Fetcher) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// MakePosts builds n posts with sequential ids beginning at start.
func MakePosts(start, n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		id := start + i
		posts[i] = models.Post{
			UserID: (id-1)/10 + 1,
			ID:     id,
			Title:  fmt.Sprintf("post title %d", id),
			Body:   fmt.Sprintf("post body %d", id),
		}
	}
	return posts
}
