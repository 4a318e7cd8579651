// ABOUTME: Core data model for posts fetched from the remote API.
// ABOUTME: Decodes the wire shape strictly so missing fields are rejected.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Post is a single post. Identity and equality are defined by ID alone.
type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// wirePost mirrors Post with pointer fields so absent keys can be detected.
type wirePost struct {
	UserID *int    `json:"userId"`
	ID     *int    `json:"id"`
	Title  *string `json:"title"`
	Body   *string `json:"body"`
}

// UnmarshalJSON decodes a post, failing if any required field is missing.
// Unknown fields are ignored.
func (p *Post) UnmarshalJSON(data []byte) error {
	var w wirePost
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var missing []string
	if w.UserID == nil {
		missing = append(missing, "userId")
	}
	if w.ID == nil {
		missing = append(missing, "id")
	}
	if w.Title == nil {
		missing = append(missing, "title")
	}
	if w.Body == nil {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return fmt.Errorf("post missing required fields: %s", strings.Join(missing, ", "))
	}

	*p = Post{
		UserID: *w.UserID,
		ID:     *w.ID,
		Title:  *w.Title,
		Body:   *w.Body,
	}
	return nil
}

// IDs returns the identifiers of posts in order.
func IDs(posts []Post) []int {
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
