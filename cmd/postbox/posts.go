// ABOUTME: CLI commands for reading posts without the interactive browser.
// ABOUTME: Provides list, search, and show subcommands over the posts API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389-research/postbox/internal/feed"
	"github.com/2389-research/postbox/internal/remote"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Read posts",
	Long:  "List pages of posts, search loaded titles, and show a single post.",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of posts",
	Long:  "Fetch a single page from the API and print it as a table.",
	RunE:  runPostsList,
}

var postsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search post titles",
	Long:  "Load up to --pages pages and print the posts whose title contains the query, ignoring case.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsSearch,
}

var postsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a post",
	Long:  "Page through the feed until the post is found, then print it in full.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsShow,
}

// Flags
var (
	listPage     int
	listLimit    int
	searchPages  int
	showMaxPages int
)

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsSearchCmd)
	postsCmd.AddCommand(postsShowCmd)

	postsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	postsListCmd.Flags().IntVar(&listLimit, "limit", 0, "Posts per page (default from config)")

	postsSearchCmd.Flags().IntVar(&searchPages, "pages", 3, "Maximum number of pages to load")

	postsShowCmd.Flags().IntVar(&showMaxPages, "max-pages", 10, "Maximum number of pages to search for the post")
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// fetchFailed turns a fetch error into the message shown to the user.
func fetchFailed(err error) error {
	globalLogger.Debug("fetch failed", "error", err)
	return fmt.Errorf("failed to load posts: %s", remote.Describe(err))
}

func runPostsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	limit := listLimit
	if limit <= 0 {
		limit = globalConfig.PageSize()
	}

	posts, err := globalClient.FetchPage(ctx, listPage, limit)
	if err != nil {
		return fetchFailed(err)
	}
	if len(posts) == 0 {
		globalPrinter.Info("No posts on page %d.", listPage)
		return nil
	}

	table := globalPrinter.PostsTable(posts)
	globalPrinter.Header(fmt.Sprintf("Page %d (%d posts)", listPage, table.Len()))
	return table.Render()
}

// loadPages fills state with up to maxPages pages, stopping early when done
// returns true or the feed runs out. Only a failed first page is an error; a
// later page failing leaves the posts loaded so far and prints a warning.
func loadPages(ctx context.Context, state *feed.PostsState, maxPages int, done func() bool) error {
	if err := state.FetchPosts(ctx); err != nil {
		return err
	}
	for loaded := 1; loaded < maxPages && !done(); loaded++ {
		if !state.Snapshot().HasMorePosts {
			break
		}
		if err := state.LoadMorePosts(ctx); err != nil {
			if remote.IsCanceled(err) {
				return err
			}
			globalLogger.Debug("pagination failed", "error", err)
			globalPrinter.Warning("Stopped after %d posts: %s", len(state.Items()), remote.Describe(err))
			return nil
		}
	}
	return nil
}

func runPostsSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	state := newState(globalClient, globalLogger)
	defer state.Close()

	if err := loadPages(ctx, state, max(searchPages, 1), func() bool { return false }); err != nil {
		return fetchFailed(err)
	}

	state.SetSearchText(args[0])
	snap := state.Snapshot()
	if len(snap.Filtered) == 0 {
		globalPrinter.Info("No posts match %q in %d loaded posts.", args[0], len(snap.Items))
		return nil
	}

	globalPrinter.Header(fmt.Sprintf("%d of %d loaded posts match %q", len(snap.Filtered), len(snap.Items), args[0]))
	if err := globalPrinter.PostsTable(snap.Filtered).Render(); err != nil {
		return err
	}
	if snap.HasMorePosts {
		globalPrinter.Print("%s", globalPrinter.Dim("More posts exist; raise --pages to search further."))
	}
	return nil
}

func runPostsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return fmt.Errorf("invalid post ID %q", args[0])
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	state := newState(globalClient, globalLogger)
	defer state.Close()

	found := func() bool {
		_, ok := state.Post(id)
		return ok
	}
	if err := loadPages(ctx, state, max(showMaxPages, 1), found); err != nil {
		return fetchFailed(err)
	}

	post, ok := state.Post(id)
	if !ok {
		return fmt.Errorf("post %d not found in the first %d posts", id, len(state.Items()))
	}
	globalPrinter.PostDetail(post)
	return nil
}
