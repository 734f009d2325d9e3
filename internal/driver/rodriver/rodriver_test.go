package rodriver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aokihara/listing-engine/internal/driver"
)

func TestClassifyMarksDeadlineAsTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	err := classify(ctx, "navigate", "", context.DeadlineExceeded)
	if !driver.IsTimeout(err) {
		t.Fatalf("expected timeout classification, got %v", err)
	}

	err = classify(ctx, "find", "search_box", errors.New("node detached"))
	if driver.IsTimeout(err) {
		t.Fatalf("expected structural classification, got %v", err)
	}
}

func TestClassifyUsesContextState(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	// rod sometimes surfaces its own error value while the context deadline
	// is what actually expired.
	err := classify(ctx, "click", "list_button", errors.New("eval failed"))
	if !driver.IsTimeout(err) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestTextPatternEscapesMetaCharacters(t *testing.T) {
	t.Parallel()

	got := textPattern("List (new)")
	want := `List \(new\)`
	if got != want {
		t.Fatalf("textPattern() = %q, want %q", got, want)
	}
}
