package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	err := Error(ELAYOUT, "block %s does not fit", "p-1")
	if Code(err) != ELAYOUT {
		t.Errorf("expected code %d, have %d", ELAYOUT, Code(err))
	}
	if UserMessage(err) != "block p-1 does not fit" {
		t.Errorf("unexpected user message %q", UserMessage(err))
	}
	wrapped := fmt.Errorf("assembling: %w", err)
	if Code(wrapped) != ELAYOUT {
		t.Errorf("expected code to survive wrapping, have %d", Code(wrapped))
	}
	if Code(errors.New("plain")) != EINTERNAL {
		t.Errorf("expected plain errors to map to EINTERNAL")
	}
	if Code(nil) != NOERROR || UserMessage(nil) != "" {
		t.Errorf("expected nil error to be NOERROR without message")
	}
}

func TestWrapNil(t *testing.T) {
	err := WrapError(nil, EMISSING, "font %q", "Noto")
	if err == nil || Code(err) != EMISSING {
		t.Fatalf("expected WrapError to wrap nil into EMISSING, have %v", err)
	}
}

func TestWarnings(t *testing.T) {
	ws := Warnings{
		{Kind: CoverageGap, Script: "Hani", CodePoints: []rune{0x4E16}},
		{Kind: SpeechSynthesis, StoryID: "story-3", Message: "timeout"},
	}
	if len(ws.Of(CoverageGap)) != 1 {
		t.Errorf("expected one coverage gap")
	}
	ws = ws.ForStory("story-1")
	if ws[0].StoryID != "story-1" || ws[1].StoryID != "story-3" {
		t.Errorf("expected story IDs to be filled in only where missing, have %v", ws)
	}
	if s := ws[0].String(); s != "coverage-gap [story-1] script=Hani U+4E16" {
		t.Errorf("unexpected warning text %q", s)
	}
}
