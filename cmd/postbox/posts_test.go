// ABOUTME: Tests for the posts subcommands' paging helper and error reporting.
// ABOUTME: Uses an in-memory fetcher and a buffered printer in place of the globals.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/2389-research/postbox/internal/feed"
	"github.com/2389-research/postbox/internal/logging"
	"github.com/2389-research/postbox/internal/output"
	"github.com/2389-research/postbox/internal/remote"
	"github.com/2389-research/postbox/internal/remote/remotetest"
)

func useTestPrinter(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevPrinter, prevLogger := globalPrinter, globalLogger
	globalPrinter = output.NewPrinterWithWriters(&out, &errOut, false)
	globalLogger = logging.Discard()
	t.Cleanup(func() {
		globalPrinter, globalLogger = prevPrinter, prevLogger
	})
	return &out, &errOut
}

func TestLoadPagesStopsAtMaxPages(t *testing.T) {
	useTestPrinter(t)
	f := remotetest.New(100)
	state := feed.NewPostsState(f)
	defer state.Close()

	if err := loadPages(context.Background(), state, 3, func() bool { return false }); err != nil {
		t.Fatalf("loadPages error: %v", err)
	}
	if got := len(state.Items()); got != 30 {
		t.Errorf("expected 30 posts from 3 pages, got %d", got)
	}
}

func TestLoadPagesWarnsOnLaterPageFailure(t *testing.T) {
	_, errOut := useTestPrinter(t)
	f := remotetest.New(100)
	f.SetError(2, fmt.Errorf("%w: truncated", remote.ErrDecodingError))
	state := feed.NewPostsState(f)
	defer state.Close()

	if err := loadPages(context.Background(), state, 5, func() bool { return false }); err != nil {
		t.Fatalf("expected the first page to be kept, got %v", err)
	}
	if got := len(state.Items()); got != 10 {
		t.Errorf("expected 10 posts, got %d", got)
	}
	if !strings.Contains(errOut.String(), "[WARN] Stopped after 10 posts: Failed to decode data") {
		t.Errorf("unexpected warning output %q", errOut.String())
	}
}

func TestLoadPagesFailsOnFirstPage(t *testing.T) {
	useTestPrinter(t)
	f := remotetest.New(100)
	f.SetError(1, fmt.Errorf("%w: status 500", remote.ErrInvalidResponse))
	state := feed.NewPostsState(f)
	defer state.Close()

	err := loadPages(context.Background(), state, 5, func() bool { return false })
	if !errors.Is(err, remote.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if msg := fetchFailed(err).Error(); msg != "failed to load posts: Invalid response from server" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestPrinterFallsBackBeforeStartup(t *testing.T) {
	prev := globalPrinter
	globalPrinter = nil
	t.Cleanup(func() { globalPrinter = prev })

	if printer() == nil {
		t.Fatal("expected a fallback printer")
	}

	_, errOut := useTestPrinter(t)
	printer().Error("%v", errors.New("failed to load config"))
	if errOut.String() != "[ERROR] failed to load config\n" {
		t.Errorf("unexpected error output %q", errOut.String())
	}
}
