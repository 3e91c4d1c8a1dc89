package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"xpurge/pkg/pipeline"
)

type recordingSender struct {
	titles   []string
	messages []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return errors.New("no desktop")
}

func TestStatusTrackerDelete(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var out bytes.Buffer
	st := NewStatusTracker(&out)

	st.BatchFetched(pipeline.KindDelete, 1, 2)
	st.ActionDone(pipeline.KindDelete, "11", nil)
	st.ActionDone(pipeline.KindDelete, "12", errors.New("forbidden"))

	if st.Acted != 1 || st.Failed != 1 {
		t.Errorf("Expected 1 acted and 1 failed, got %d and %d", st.Acted, st.Failed)
	}

	got := out.String()
	for _, want := range []string{
		"[FETCHED] batch 1: 2 posts",
		"deleted 11 [██████████░░░░░░░░░░] 1/2",
		"[FAILED] 12 forbidden",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestStatusTrackerUnlikeSkips(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var out bytes.Buffer
	st := NewStatusTracker(&out)

	st.BatchFetched(pipeline.KindUnlike, 3, 1)
	st.ActionDone(pipeline.KindUnlike, "7", errors.New("gone"))

	if !strings.Contains(out.String(), "1 like\n") {
		t.Errorf("Expected singular noun, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "[SKIPPED] 7 gone") {
		t.Errorf("Expected skipped line, got:\n%s", out.String())
	}

	st.PrintSummary(pipeline.KindUnlike, pipeline.Result{Batches: 3, Acted: 0, Skipped: 1, BatchFetched: 1})
	if !strings.Contains(out.String(), "0 unliked in 3 batches, 1 skipped") {
		t.Errorf("Expected summary, got:\n%s", out.String())
	}
}

func TestColorToggle(t *testing.T) {
	if got := Red("x"); got != "\033[31mx\033[0m" {
		t.Errorf("Expected colored text, got %q", got)
	}
	SetColor(false)
	defer SetColor(true)
	if got := Red("x"); got != "x" {
		t.Errorf("Expected plain text, got %q", got)
	}
}

func TestPrintHelpers(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var out bytes.Buffer
	prev := Output
	Output = &out
	defer func() { Output = prev }()

	PrintError("Delete failed", "12")
	PrintInfo("User", "@alice")
	PrintWarning("careful")

	want := "Delete failed: 12\nUser: @alice\ncareful\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestNotifierRunFinished(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var out bytes.Buffer
	sender := &recordingSender{}
	n := NewNotifierWithSender(&out, sender)

	n.RunFinished(pipeline.KindDelete, pipeline.Result{Acted: 4}, nil)
	n.RunFinished(pipeline.KindDelete, pipeline.Result{}, errors.New("action failed for 12"))

	if len(sender.titles) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(sender.titles))
	}
	if sender.titles[0] != "xpurge delete finished" || sender.messages[0] != "4 deleted, 0 skipped" {
		t.Errorf("Unexpected success notification: %q %q", sender.titles[0], sender.messages[0])
	}
	if sender.titles[1] != "xpurge delete aborted" {
		t.Errorf("Unexpected failure title: %q", sender.titles[1])
	}
	if !strings.Contains(out.String(), "action failed for 12") {
		t.Errorf("Expected console output to carry the error, got:\n%s", out.String())
	}
}

func TestNotifierWithoutDesktop(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifier(&out, false)
	n.SendNotification("title", "body")

	if n.sender != nil {
		t.Error("Expected no desktop sender")
	}
	if !strings.Contains(out.String(), "body") {
		t.Errorf("Expected console output, got %q", out.String())
	}
}
