// ABOUTME: Unit tests for the setup TUI wizard bubbletea model.
// ABOUTME: Uses synthetic tea.Msg values to test state machine transitions.
package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func enter(m SetupModel) (SetupModel, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(SetupModel), cmd
}

func runes(m SetupModel, r rune) (SetupModel, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return updated.(SetupModel), cmd
}

// firstBatched runs the first command of a tea.Batch, which is the validation.
func firstBatched(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a batched command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatalf("expected tea.BatchMsg, got %T", cmd())
	}
	return batch[0]()
}

func TestNewSetupModel_DefaultValues(t *testing.T) {
	m := NewSetupModel("", 0)
	if m.step != StepAPIURL {
		t.Errorf("expected initial step StepAPIURL, got %d", m.step)
	}
	if m.inputs[0].Value() != "" {
		t.Error("expected empty API URL input for new config")
	}
	if m.inputs[1].Value() != "" {
		t.Error("expected empty page size input for new config")
	}
}

func TestNewSetupModel_ExistingConfig(t *testing.T) {
	m := NewSetupModel("https://example.com/api", 25)
	if m.inputs[0].Value() != "https://example.com/api" {
		t.Errorf("expected pre-filled API URL, got %q", m.inputs[0].Value())
	}
	if m.inputs[1].Value() != "25" {
		t.Errorf("expected pre-filled page size, got %q", m.inputs[1].Value())
	}
}

func TestSetupModel_StepTransitions(t *testing.T) {
	m := NewSetupModel("", 0)

	m.inputs[0].SetValue("https://posts.example.com")
	m, _ = enter(m)
	if m.step != StepPageSize {
		t.Errorf("expected StepPageSize after Enter on API URL, got %d", m.step)
	}

	m.inputs[1].SetValue("20")
	m, cmd := enter(m)
	if m.step != StepValidating {
		t.Errorf("expected StepValidating after Enter on page size, got %d", m.step)
	}
	if cmd == nil {
		t.Error("expected non-nil cmd (validation + spinner tick) when entering validation")
	}
}

func TestSetupModel_DefaultAPIURL(t *testing.T) {
	m := NewSetupModel("", 0)

	m, _ = enter(m)
	if m.inputs[0].Value() != DefaultAPIURL {
		t.Errorf("expected default API URL %q, got %q", DefaultAPIURL, m.inputs[0].Value())
	}
	if m.step != StepPageSize {
		t.Errorf("expected StepPageSize, got %d", m.step)
	}
}

func TestSetupModel_TrailingSlashTrimmed(t *testing.T) {
	m := NewSetupModel("https://posts.example.com///", 0)
	m, _ = enter(m)
	if got := m.inputs[0].Value(); got != "https://posts.example.com" {
		t.Errorf("expected trailing slashes trimmed, got %q", got)
	}
}

func TestSetupModel_DefaultPageSize(t *testing.T) {
	m := NewSetupModel("", 0)
	m.validateFn = func(ctx context.Context, apiURL string) error { return nil }
	m, _ = enter(m)
	m, _ = enter(m)

	if m.step != StepValidating {
		t.Fatalf("expected StepValidating, got %d", m.step)
	}
	if m.inputs[1].Value() != "10" {
		t.Errorf("expected default page size 10, got %q", m.inputs[1].Value())
	}
}

func TestSetupModel_InvalidPageSize(t *testing.T) {
	for _, value := range []string{"0", "-3", "ten"} {
		m := NewSetupModel("", 0)
		m, _ = enter(m)
		m.inputs[1].SetValue(value)
		m, cmd := enter(m)

		if m.step != StepPageSize {
			t.Errorf("%q: expected to stay on StepPageSize, got %d", value, m.step)
		}
		if cmd != nil {
			t.Errorf("%q: expected nil cmd for rejected page size", value)
		}
		if !strings.Contains(m.View(), "positive number") {
			t.Errorf("%q: expected page size hint in view", value)
		}
	}
}

func TestSetupModel_ValidationSuccess(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepValidating

	updated, cmd := m.Update(validationResultMsg{err: nil})
	m = updated.(SetupModel)
	if m.step != StepDone {
		t.Errorf("expected StepDone after successful validation, got %d", m.step)
	}
	if cmd == nil {
		t.Error("expected tea.Quit cmd after success")
	}
	if !m.ShouldSave() {
		t.Error("expected ShouldSave() to be true after successful validation")
	}
}

func TestSetupModel_ValidationFailure(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepValidating

	updated, _ := m.Update(validationResultMsg{err: fmt.Errorf("Invalid response from server")})
	m = updated.(SetupModel)
	if m.step != StepFailed {
		t.Errorf("expected StepFailed after validation error, got %d", m.step)
	}
	if m.validationErr == nil {
		t.Error("expected validationErr to be set")
	}
	if m.ShouldSave() {
		t.Error("expected ShouldSave() false while failed")
	}
}

func TestSetupModel_RetryAfterFailure(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepFailed
	m.validationErr = fmt.Errorf("some error")

	m, cmd := runes(m, 'r')
	if m.step != StepValidating {
		t.Errorf("expected StepValidating after retry, got %d", m.step)
	}
	if m.validationErr != nil {
		t.Error("expected validationErr to be cleared on retry")
	}
	if cmd == nil {
		t.Error("expected non-nil cmd for retry validation")
	}
}

func TestSetupModel_SaveAnyway(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepFailed
	m.validationErr = fmt.Errorf("connection refused")

	m, cmd := runes(m, 's')
	if m.step != StepDone {
		t.Errorf("expected StepDone after save anyway, got %d", m.step)
	}
	if cmd == nil {
		t.Error("expected tea.Quit cmd after save anyway")
	}
	if !m.ShouldSave() {
		t.Error("expected ShouldSave() true after save anyway")
	}
}

func TestSetupModel_QuitFromFailed(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepFailed
	m.validationErr = fmt.Errorf("error")

	m, _ = runes(m, 'q')
	if !m.quitting {
		t.Error("expected quitting to be true")
	}
	if m.ShouldSave() {
		t.Error("expected ShouldSave() false after quit")
	}
}

func TestSetupModel_CtrlC(t *testing.T) {
	m := NewSetupModel("", 0)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(SetupModel)
	if !m.quitting {
		t.Error("expected quitting after Ctrl+C")
	}
	if cmd == nil {
		t.Error("expected tea.Quit cmd after Ctrl+C")
	}
	if m.ShouldSave() {
		t.Error("expected ShouldSave() false after Ctrl+C")
	}
}

func TestSetupModel_Escape(t *testing.T) {
	m := NewSetupModel("", 0)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(SetupModel)
	if !m.quitting {
		t.Error("expected quitting after Escape")
	}
}

func TestSetupModel_CtrlCDuringValidation(t *testing.T) {
	m := NewSetupModel("", 0)

	started := make(chan struct{})
	m.validateFn = func(ctx context.Context, apiURL string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	m, _ = enter(m)
	m, cmd := enter(m)
	if m.step != StepValidating {
		t.Fatalf("expected StepValidating, got %d", m.step)
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatal("expected tea.BatchMsg from validation start")
	}
	result := make(chan tea.Msg, 1)
	go func() { result <- batch[0]() }()
	<-started

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(SetupModel)
	if !m.quitting {
		t.Error("expected quitting after Ctrl+C")
	}

	select {
	case msg := <-result:
		vr, ok := msg.(validationResultMsg)
		if !ok {
			t.Fatalf("expected validationResultMsg, got %T", msg)
		}
		if vr.err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", vr.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("validation was not cancelled by Ctrl+C")
	}
}

func TestSetupModel_ValidationPassesCorrectArgs(t *testing.T) {
	m := NewSetupModel("https://posts.example.com/", 0)

	var gotURL string
	m.validateFn = func(ctx context.Context, apiURL string) error {
		gotURL = apiURL
		return nil
	}

	m, _ = enter(m)
	m.inputs[1].SetValue("15")
	_, cmd := enter(m)

	msg := firstBatched(t, cmd)
	if vr, ok := msg.(validationResultMsg); !ok || vr.err != nil {
		t.Fatalf("expected successful validationResultMsg, got %#v", msg)
	}
	if gotURL != "https://posts.example.com" {
		t.Errorf("expected normalized URL, got %q", gotURL)
	}
}

func TestSetupModel_Result(t *testing.T) {
	m := NewSetupModel("https://posts.example.com", 30)
	apiURL, pageSize := m.Result()
	if apiURL != "https://posts.example.com" {
		t.Errorf("expected API URL, got %q", apiURL)
	}
	if pageSize != 30 {
		t.Errorf("expected page size 30, got %d", pageSize)
	}

	m.inputs[1].SetValue("")
	if _, pageSize := m.Result(); pageSize != 10 {
		t.Errorf("expected fallback page size 10, got %d", pageSize)
	}
}

func TestSetupModel_ViewSteps(t *testing.T) {
	m := NewSetupModel("", 0)

	if view := m.View(); !strings.Contains(view, "Step 1 of 2") {
		t.Errorf("expected step 1 in view, got:\n%s", view)
	}

	m, _ = enter(m)
	view := m.View()
	if !strings.Contains(view, "Step 2 of 2") {
		t.Errorf("expected step 2 in view, got:\n%s", view)
	}
	if !strings.Contains(view, DefaultAPIURL) {
		t.Error("expected chosen API URL echoed on step 2")
	}

	m.step = StepValidating
	if view := m.View(); !strings.Contains(view, "Fetching a post") {
		t.Errorf("expected validating message, got:\n%s", view)
	}

	m.step = StepDone
	if view := m.View(); !strings.Contains(view, "Connected") {
		t.Errorf("expected success message, got:\n%s", view)
	}
}

func TestSetupModel_ViewFailed(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepFailed
	m.validationErr = fmt.Errorf("Invalid URL")

	view := m.View()
	if !strings.Contains(view, "Invalid URL") {
		t.Error("expected error message in view")
	}
	if !strings.Contains(view, "[r]etry") {
		t.Error("expected retry prompt in view")
	}
}

func TestSetupModel_ViewFailedNilError(t *testing.T) {
	m := NewSetupModel("", 0)
	m.step = StepFailed

	if view := m.View(); !strings.Contains(view, "unknown error") {
		t.Errorf("expected 'unknown error' fallback, got:\n%s", view)
	}
}

func TestSetupModel_FullFlowWithTeaProgram(t *testing.T) {
	m := NewSetupModel("https://posts.example.com", 5)
	m.validateFn = func(ctx context.Context, apiURL string) error { return nil }

	p := tea.NewProgram(m, tea.WithInput(nil), tea.WithoutRenderer())
	go func() {
		p.Send(tea.KeyMsg{Type: tea.KeyEnter})
		p.Send(tea.KeyMsg{Type: tea.KeyEnter})
	}()

	done := make(chan tea.Model, 1)
	go func() {
		final, err := p.Run()
		if err != nil {
			t.Errorf("program run: %v", err)
		}
		done <- final
	}()

	select {
	case final := <-done:
		fm, ok := final.(SetupModel)
		if !ok {
			t.Fatalf("expected SetupModel, got %T", final)
		}
		if !fm.ShouldSave() {
			t.Error("expected completed wizard to be saveable")
		}
		apiURL, pageSize := fm.Result()
		if apiURL != "https://posts.example.com" || pageSize != 5 {
			t.Errorf("unexpected result %q %d", apiURL, pageSize)
		}
	case <-time.After(5 * time.Second):
		p.Kill()
		t.Fatal("wizard did not finish")
	}
}
