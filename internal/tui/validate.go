// ABOUTME: Connection validation for a posts API.
// ABOUTME: Tests the address by fetching a single post through the remote client.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/2389-research/postbox/internal/remote"
)

// ValidateConnection tests the API by fetching the first page with one post.
// The context allows cancellation when the user quits during validation.
func ValidateConnection(ctx context.Context, apiURL string) error {
	client := remote.NewClient(apiURL, remote.WithTimeout(10*time.Second))

	posts, err := client.FetchPage(ctx, 1, 1)
	if err != nil {
		if msg := remote.Describe(err); msg != err.Error() {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	if len(posts) == 0 {
		return fmt.Errorf("API returned no posts")
	}
	return nil
}
