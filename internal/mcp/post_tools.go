// ABOUTME: MCP tool implementations for the post feed.
// ABOUTME: Registers fetch, pagination, refresh, listing, detail, and favorites tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/postbox/internal/feed"
	"github.com/2389-research/postbox/internal/models"
	"github.com/2389-research/postbox/internal/remote"
)

const defaultListLimit = 20

func (s *Server) registerPostTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "fetch_posts",
		Description: "Load the first page of posts, replacing anything already loaded.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleFetchPosts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "load_more_posts",
		Description: "Append the next page of posts. Does nothing when every page is loaded or a page is already being fetched.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"retry": {"type": "boolean", "description": "Retry after a failed page load (default false)"}
			}
		}`),
	}, s.handleLoadMorePosts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "refresh_posts",
		Description: "Reload the feed from the first page. Favorites are kept.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleRefreshPosts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_posts",
		Description: "List loaded posts. An optional search filters by title, ignoring case, and stays applied until changed.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"search": {"type": "string", "description": "Title filter; an empty string clears it"},
				"limit": {"type": "number", "description": "Maximum number of posts to return (default 20)"},
				"offset": {"type": "number", "description": "Number of posts to skip (default 0)"}
			}
		}`),
	}, s.handleListPosts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "get_post",
		Description: "Read the full title and body of a loaded post.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "number", "description": "Post ID"}
			},
			"required": ["id"]
		}`),
	}, s.handleGetPost)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "toggle_favorite",
		Description: "Add a loaded post to favorites, or remove it if it is already a favorite.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "number", "description": "Post ID"}
			},
			"required": ["id"]
		}`),
	}, s.handleToggleFavorite)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_favorites",
		Description: "List favorite posts in feed order, optionally filtered by title or body.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Filter favorites by title or body, ignoring case"}
			}
		}`),
	}, s.handleListFavorites)
}

func (s *Server) handleFetchPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	if err := s.state.FetchPosts(ctx); err != nil {
		return s.fetchError("fetch_posts", err), nil
	}
	return textResult(feedSummary(s.state.Snapshot())), nil
}

func (s *Server) handleRefreshPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	if err := s.state.RefreshPosts(ctx); err != nil {
		return s.fetchError("refresh_posts", err), nil
	}
	return textResult(feedSummary(s.state.Snapshot())), nil
}

func (s *Server) handleLoadMorePosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Retry bool `json:"retry"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	before := s.state.Snapshot()
	if !before.HasMorePosts {
		return textResult("No more posts to load.\n" + feedSummary(before)), nil
	}
	if before.IsLoadingMore || before.IsPaginationInProgress {
		return textResult("A page is already loading.\n" + feedSummary(before)), nil
	}

	var err error
	if args.Retry {
		err = s.state.RetryPagination(ctx)
	} else {
		err = s.state.LoadMorePosts(ctx)
	}
	// Only this call's error counts; PaginationError may belong to another caller.
	if err != nil {
		if remote.IsCanceled(err) {
			return s.fetchError("load_more_posts", err), nil
		}
		s.logger.Warn("tool fetch failed", "tool", "load_more_posts", "error", err)
		return toolError("Couldn't load more: %s. Call load_more_posts with retry=true to try again.", remote.Describe(err)), nil
	}
	after := s.state.Snapshot()
	added := len(after.Items) - len(before.Items)
	return textResult(fmt.Sprintf("Added %d posts.\n%s", max(added, 0), feedSummary(after))), nil
}

func (s *Server) handleListPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Search *string `json:"search"`
		Limit  int     `json:"limit"`
		Offset int     `json:"offset"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Limit <= 0 {
		args.Limit = defaultListLimit
	}
	if args.Offset < 0 {
		return toolError("offset must not be negative"), nil
	}

	if args.Search != nil {
		s.state.SetSearchText(*args.Search)
	}
	snap := s.state.Snapshot()

	if len(snap.Items) == 0 {
		return textResult("No posts loaded. Call fetch_posts first."), nil
	}
	if len(snap.Filtered) == 0 {
		return textResult(fmt.Sprintf("No posts match %q.", snap.SearchText)), nil
	}

	start := min(args.Offset, len(snap.Filtered))
	end := min(start+args.Limit, len(snap.Filtered))
	page := snap.Filtered[start:end]

	var sb strings.Builder
	if snap.SearchText != "" {
		sb.WriteString(fmt.Sprintf("Search: %q\n", snap.SearchText))
	}
	sb.WriteString(fmt.Sprintf("Showing %d-%d of %d posts\n\n", start+1, end, len(snap.Filtered)))
	if len(page) == 0 {
		sb.WriteString("(none in range)\n")
	}
	writePostLines(&sb, page, snap)
	if snap.HasMorePosts && snap.SearchText == "" && end == len(snap.Filtered) {
		sb.WriteString("\nMore posts are available via load_more_posts.\n")
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleGetPost(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID int `json:"id"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID <= 0 {
		return toolError("id is required"), nil
	}

	post, ok := s.state.Post(args.ID)
	if !ok {
		return toolError("post %d is not loaded", args.ID), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", post.Title))
	sb.WriteString(post.Body)
	sb.WriteString(fmt.Sprintf("\n\nPost ID: %d\nUser ID: %d\n", post.ID, post.UserID))
	if s.state.IsFavorite(post) {
		sb.WriteString("Favorite: yes\n")
	}
	return textResult(sb.String()), nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID int `json:"id"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID <= 0 {
		return toolError("id is required"), nil
	}

	post, ok := s.state.Post(args.ID)
	if !ok {
		return toolError("post %d is not loaded", args.ID), nil
	}
	s.state.ToggleFavorite(post)

	if s.state.IsFavorite(post) {
		return textResult(fmt.Sprintf("Post %d added to favorites (%d total).", post.ID, s.state.FavoriteCount())), nil
	}
	return textResult(fmt.Sprintf("Post %d removed from favorites (%d total).", post.ID, s.state.FavoriteCount())), nil
}

func (s *Server) handleListFavorites(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	favorites := s.state.SearchFavorites(args.Query)
	if len(favorites) == 0 {
		if args.Query != "" {
			return textResult(fmt.Sprintf("No favorites match %q.", args.Query)), nil
		}
		return textResult("No favorites yet."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d favorites\n\n", len(favorites)))
	writePostLines(&sb, favorites, s.state.Snapshot())
	return textResult(sb.String()), nil
}

// fetchError reports a failed fetch. Canceled fetches are not errors of the
// feed, so they carry no user message.
func (s *Server) fetchError(tool string, err error) *gomcp.CallToolResult {
	if remote.IsCanceled(err) {
		return toolError("%s was canceled", tool)
	}
	s.logger.Warn("tool fetch failed", "tool", tool, "error", err)
	return toolError("%s", remote.Describe(err))
}

func feedSummary(snap feed.Snapshot) string {
	more := "no"
	if snap.HasMorePosts {
		more = "yes"
	}
	return fmt.Sprintf("Loaded %d posts (next page %d). More available: %s.", len(snap.Items), snap.CurrentPage, more)
}

func writePostLines(sb *strings.Builder, posts []models.Post, snap feed.Snapshot) {
	for _, p := range posts {
		marker := " "
		if snap.IsFavorite(p.ID) {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s #%d [user %d] %s\n", marker, p.ID, p.UserID, p.Title))
	}
}

// unmarshalArgs decodes tool arguments, treating missing arguments as empty.
func unmarshalArgs(req *gomcp.CallToolRequest, v any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
