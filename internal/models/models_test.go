// ABOUTME: Tests for strict post decoding.
// ABOUTME: Covers missing fields, unknown fields, and identity helpers.
package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPostDecodeIgnoresUnknownFields(t *testing.T) {
	data := `{"userId": 3, "id": 21, "title": "hello", "body": "world", "extra": true}`

	var p Post
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	want := Post{UserID: 3, ID: 21, Title: "hello", Body: "world"}
	if p != want {
		t.Errorf("decoded %+v, want %+v", p, want)
	}
}

func TestPostDecodeMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing string
	}{
		{"no id", `{"userId": 1, "title": "t", "body": "b"}`, "id"},
		{"no userId", `{"id": 1, "title": "t", "body": "b"}`, "userId"},
		{"no title", `{"userId": 1, "id": 1, "body": "b"}`, "title"},
		{"no body", `{"userId": 1, "id": 1, "title": "t"}`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Post
			err := json.Unmarshal([]byte(tt.input), &p)
			if err == nil {
				t.Fatal("expected error for missing field")
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("expected error to name %q, got: %v", tt.missing, err)
			}
		})
	}
}

func TestPostDecodeWrongType(t *testing.T) {
	var p Post
	if err := json.Unmarshal([]byte(`{"userId": "x", "id": 1, "title": "t", "body": "b"}`), &p); err == nil {
		t.Fatal("expected error for string userId")
	}
}

func TestPostDecodeArray(t *testing.T) {
	data := `[{"userId":1,"id":1,"title":"a","body":"x"},{"userId":1,"id":2,"title":"b","body":"y"}]`
	var posts []Post
	if err := json.Unmarshal([]byte(data), &posts); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	ids := IDs(posts)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("expected ids [1 2], got %v", ids)
	}
}
