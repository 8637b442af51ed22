package generator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"brandpilot/internal/models"
	"brandpilot/internal/service/ai"
	"brandpilot/internal/store"
)

type fakeCaps struct {
	strategyFn func(ctx context.Context, prompt, contextSummary string, attachments []models.MediaAttachment) (string, error)
	researchFn func(ctx context.Context, query string) (*ai.ResearchResult, error)
	imageFn    func(ctx context.Context, prompt string, reference *models.MediaAttachment) ([]byte, string, error)
	videoFn    func(ctx context.Context, prompt string) ([]byte, string, error)
}

func (f *fakeCaps) Strategy(ctx context.Context, prompt, contextSummary string, attachments []models.MediaAttachment) (string, error) {
	return f.strategyFn(ctx, prompt, contextSummary, attachments)
}

func (f *fakeCaps) Research(ctx context.Context, query string) (*ai.ResearchResult, error) {
	return f.researchFn(ctx, query)
}

func (f *fakeCaps) Image(ctx context.Context, prompt string, reference *models.MediaAttachment) ([]byte, string, error) {
	return f.imageFn(ctx, prompt, reference)
}

func (f *fakeCaps) Video(ctx context.Context, prompt string) ([]byte, string, error) {
	return f.videoFn(ctx, prompt)
}

type fakeMedia struct {
	saveErr error
	saved   int
}

func (f *fakeMedia) SaveGenerated(_ context.Context, kind string, data []byte, mimeType string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved++
	return fmt.Sprintf("/api/media/%s-%d", kind, f.saved), nil
}

func newTestController(caps *fakeCaps, media *fakeMedia) (*Controller, *store.Conversation) {
	conv := store.NewConversation()
	if media == nil {
		media = &fakeMedia{}
	}
	return NewController(conv, caps, media), conv
}

func lastMessage(t *testing.T, conv *store.Conversation) models.Message {
	t.Helper()
	msgs := conv.Messages()
	if len(msgs) == 0 {
		t.Fatalf("transcript is empty")
	}
	return msgs[len(msgs)-1]
}

func TestSubmitCopywritingSuccess(t *testing.T) {
	var gotSummary string
	caps := &fakeCaps{
		strategyFn: func(_ context.Context, prompt, contextSummary string, _ []models.MediaAttachment) (string, error) {
			gotSummary = contextSummary
			if prompt != "Write a tagline for LuxNova" {
				t.Fatalf("unexpected prompt: %q", prompt)
			}
			return "Shine Beyond.", nil
		},
	}
	ctrl, conv := newTestController(caps, nil)

	err := ctrl.Submit(context.Background(), Request{
		Prompt:  "Write a tagline for LuxNova",
		Mode:    models.ModeCopywriting,
		Context: models.ProjectContext{BrandName: "LuxNova", Industry: "Jewelry", Tone: "Refined"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user turn + assistant turn, got %d messages", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[0].Content != "Write a tagline for LuxNova" {
		t.Fatalf("unexpected user turn: %#v", msgs[0])
	}
	final := msgs[1]
	if final.Role != models.RoleAssistant || final.Type != models.TypeText || final.Content != "Shine Beyond." {
		t.Fatalf("unexpected assistant turn: %#v", final)
	}
	if gotSummary != "Brand: LuxNova. Industry: Jewelry. Tone of voice: Refined." {
		t.Fatalf("context summary not threaded through: %q", gotSummary)
	}
	if conv.Busy() {
		t.Fatalf("busy flag must be released")
	}
}

func TestSubmitTrimsPromptAndKeepsAttachment(t *testing.T) {
	att := &models.MediaAttachment{MimeType: "image/png", Data: "aGk=", Name: "ref.png"}
	caps := &fakeCaps{
		strategyFn: func(_ context.Context, prompt, _ string, attachments []models.MediaAttachment) (string, error) {
			if prompt != "polish this" {
				t.Fatalf("prompt not trimmed: %q", prompt)
			}
			if len(attachments) != 1 || attachments[0].Name != "ref.png" {
				t.Fatalf("attachment not forwarded: %#v", attachments)
			}
			return "done", nil
		},
	}
	ctrl, conv := newTestController(caps, nil)
	if err := ctrl.Submit(context.Background(), Request{
		Prompt:     "  polish this  ",
		Attachment: att,
		Mode:       models.ModeCopywriting,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	user := conv.Messages()[0]
	if len(user.Attachments) != 1 || user.Attachments[0].MimeType != "image/png" {
		t.Fatalf("attachment missing from user turn: %#v", user)
	}
}

func TestSubmitEmptyIsNoOp(t *testing.T) {
	caps := &fakeCaps{}
	ctrl, conv := newTestController(caps, nil)

	err := ctrl.Submit(context.Background(), Request{Prompt: "   ", Mode: models.ModeCopywriting})
	if !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("expected ErrEmptySubmission, got %v", err)
	}
	if conv.Len() != 0 {
		t.Fatalf("store must be untouched, got %d messages", conv.Len())
	}
	if conv.Busy() {
		t.Fatalf("busy flag must not change on rejection")
	}
}

func TestSubmitAttachmentOnlyIsAccepted(t *testing.T) {
	caps := &fakeCaps{
		imageFn: func(_ context.Context, prompt string, reference *models.MediaAttachment) ([]byte, string, error) {
			if reference == nil {
				t.Fatalf("reference attachment missing")
			}
			return []byte("img"), "image/png", nil
		},
	}
	ctrl, conv := newTestController(caps, nil)
	err := ctrl.Submit(context.Background(), Request{
		Attachment: &models.MediaAttachment{MimeType: "image/png", Data: "aGk="},
		Mode:       models.ModeVisual,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if conv.Len() != 2 {
		t.Fatalf("expected user + assistant turns, got %d", conv.Len())
	}
}

func TestSubmitWhileBusyIsNoOp(t *testing.T) {
	caps := &fakeCaps{}
	ctrl, conv := newTestController(caps, nil)
	conv.TryBegin()

	err := ctrl.Submit(context.Background(), Request{Prompt: "valid input", Mode: models.ModeCopywriting})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if conv.Len() != 0 {
		t.Fatalf("store must be untouched while busy")
	}
	if !conv.Busy() {
		t.Fatalf("foreign busy claim must not be released")
	}
}

func TestSubmitUnknownModeRejected(t *testing.T) {
	caps := &fakeCaps{}
	ctrl, conv := newTestController(caps, nil)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "hi", Mode: "poetry"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if conv.Len() != 0 || conv.Busy() {
		t.Fatalf("store or gate mutated by rejected mode")
	}
}

func TestSubmitStrategyFaultAppendsGenericError(t *testing.T) {
	caps := &fakeCaps{
		strategyFn: func(context.Context, string, string, []models.MediaAttachment) (string, error) {
			return "", errors.New("401 unauthorized")
		},
	}
	ctrl, conv := newTestController(caps, nil)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "hi", Mode: models.ModeCopywriting}); err != nil {
		t.Fatalf("capability faults must not surface to the caller, got %v", err)
	}
	final := lastMessage(t, conv)
	if final.Type != models.TypeText || final.Content != genericFaultText {
		t.Fatalf("expected generic fault message, got %#v", final)
	}
	if conv.Busy() {
		t.Fatalf("busy flag must be released after a fault")
	}
}

func TestSubmitResearchSuccess(t *testing.T) {
	caps := &fakeCaps{
		researchFn: func(_ context.Context, query string) (*ai.ResearchResult, error) {
			if query != "sustainable packaging trends" {
				t.Fatalf("unexpected query: %q", query)
			}
			return &ai.ResearchResult{
				Text:    "Trends point to mono-materials.",
				Sources: []models.Source{{URI: "https://x", Title: "X"}},
			}, nil
		},
	}
	ctrl, conv := newTestController(caps, nil)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "sustainable packaging trends", Mode: models.ModeResearch}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	final := lastMessage(t, conv)
	if final.Type != models.TypeResearch {
		t.Fatalf("expected research message, got %q", final.Type)
	}
	if final.Metadata == nil || len(final.Metadata.Sources) != 1 || final.Metadata.Sources[0].URI != "https://x" {
		t.Fatalf("sources not carried over: %#v", final.Metadata)
	}
	if final.Metadata.ImageURL != "" || final.Metadata.VideoURL != "" {
		t.Fatalf("research metadata must not carry media urls: %#v", final.Metadata)
	}
}

func TestSubmitVisualSuccess(t *testing.T) {
	caps := &fakeCaps{
		imageFn: func(_ context.Context, prompt string, _ *models.MediaAttachment) ([]byte, string, error) {
			return []byte("png-bytes"), "image/png", nil
		},
	}
	media := &fakeMedia{}
	ctrl, conv := newTestController(caps, media)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "neon skyline", Mode: models.ModeVisual}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	final := lastMessage(t, conv)
	if final.Type != models.TypeImage {
		t.Fatalf("expected image message, got %q", final.Type)
	}
	if final.Metadata == nil || final.Metadata.ImageURL == "" {
		t.Fatalf("image url missing: %#v", final.Metadata)
	}
	if media.saved != 1 {
		t.Fatalf("expected one saved asset, got %d", media.saved)
	}
}

func TestSubmitVisualAbsentResult(t *testing.T) {
	caps := &fakeCaps{
		imageFn: func(context.Context, string, *models.MediaAttachment) ([]byte, string, error) {
			return nil, "", nil
		},
	}
	media := &fakeMedia{}
	ctrl, conv := newTestController(caps, media)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "neon skyline", Mode: models.ModeVisual}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	final := lastMessage(t, conv)
	if final.Type != models.TypeText || final.Content != imageAbsentText {
		t.Fatalf("expected image failure text, got %#v", final)
	}
	for _, msg := range conv.Messages() {
		if msg.Type == models.TypeImage {
			t.Fatalf("no image message may be appended on absence")
		}
	}
	if media.saved != 0 {
		t.Fatalf("nothing should be saved on absence")
	}
	if conv.Busy() {
		t.Fatalf("busy flag must be released")
	}
}

func TestSubmitVisualSaveFailure(t *testing.T) {
	caps := &fakeCaps{
		imageFn: func(context.Context, string, *models.MediaAttachment) ([]byte, string, error) {
			return []byte("png"), "image/png", nil
		},
	}
	ctrl, conv := newTestController(caps, &fakeMedia{saveErr: errors.New("disk full")})
	if err := ctrl.Submit(context.Background(), Request{Prompt: "neon skyline", Mode: models.ModeVisual}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if final := lastMessage(t, conv); final.Content != genericFaultText {
		t.Fatalf("expected generic fault on save failure, got %#v", final)
	}
}

func TestSubmitVideoShowsAndRemovesPlaceholder(t *testing.T) {
	var sawPlaceholder bool
	var conv *store.Conversation
	caps := &fakeCaps{
		videoFn: func(context.Context, string) ([]byte, string, error) {
			// The placeholder must be visible while the capability runs.
			for _, msg := range conv.Messages() {
				if msg.ID == PlaceholderID && msg.Metadata != nil && msg.Metadata.Thinking {
					sawPlaceholder = true
				}
			}
			return []byte("mp4-bytes"), "video/mp4", nil
		},
	}
	ctrl, c := newTestController(caps, nil)
	conv = c
	if err := ctrl.Submit(context.Background(), Request{Prompt: "drone shot of ocean", Mode: models.ModeVideo}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !sawPlaceholder {
		t.Fatalf("placeholder was never visible during dispatch")
	}
	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("placeholder must not remain; got %d messages", len(msgs))
	}
	final := msgs[1]
	if final.Type != models.TypeVideo || final.Metadata == nil || final.Metadata.VideoURL == "" {
		t.Fatalf("unexpected terminal message: %#v", final)
	}
	if final.ID == PlaceholderID {
		t.Fatalf("terminal message must not reuse the placeholder id")
	}
}

func TestSubmitVideoFaultRemovesPlaceholder(t *testing.T) {
	caps := &fakeCaps{
		videoFn: func(context.Context, string) ([]byte, string, error) {
			return nil, "", errors.New("render farm unavailable")
		},
	}
	ctrl, conv := newTestController(caps, nil)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "drone shot of ocean", Mode: models.ModeVideo}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	for _, msg := range conv.Messages() {
		if msg.ID == PlaceholderID {
			t.Fatalf("stale placeholder after fault")
		}
	}
	final := lastMessage(t, conv)
	if final.Type != models.TypeText || final.Content != videoFailedText {
		t.Fatalf("expected video failure text, got %#v", final)
	}
	if conv.Busy() {
		t.Fatalf("busy flag must be released after video fault")
	}
}

func TestSubmitVideoAbsentResult(t *testing.T) {
	caps := &fakeCaps{
		videoFn: func(context.Context, string) ([]byte, string, error) {
			return nil, "", nil
		},
	}
	ctrl, conv := newTestController(caps, nil)
	if err := ctrl.Submit(context.Background(), Request{Prompt: "drone shot", Mode: models.ModeVideo}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if final := lastMessage(t, conv); final.Content != videoFailedText {
		t.Fatalf("expected video failure text on absent result, got %#v", final)
	}
	if conv.Len() != 2 {
		t.Fatalf("expected exactly user + terminal turns, got %d", conv.Len())
	}
}

func TestEveryModeAppendsExactlyOneTerminalRecord(t *testing.T) {
	caps := &fakeCaps{
		strategyFn: func(context.Context, string, string, []models.MediaAttachment) (string, error) {
			return "copy", nil
		},
		researchFn: func(context.Context, string) (*ai.ResearchResult, error) {
			return &ai.ResearchResult{Text: "facts"}, nil
		},
		imageFn: func(context.Context, string, *models.MediaAttachment) ([]byte, string, error) {
			return []byte("img"), "image/png", nil
		},
		videoFn: func(context.Context, string) ([]byte, string, error) {
			return []byte("vid"), "video/mp4", nil
		},
	}
	for _, mode := range []models.GenerationMode{
		models.ModeCopywriting, models.ModeResearch, models.ModeVisual, models.ModeVideo,
	} {
		ctrl, conv := newTestController(caps, nil)
		if err := ctrl.Submit(context.Background(), Request{Prompt: "go", Mode: mode}); err != nil {
			t.Fatalf("mode %s: submit: %v", mode, err)
		}
		msgs := conv.Messages()
		if len(msgs) != 2 {
			t.Fatalf("mode %s: expected 2 messages, got %d", mode, len(msgs))
		}
		if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
			t.Fatalf("mode %s: wrong roles: %#v", mode, msgs)
		}
		if conv.Busy() {
			t.Fatalf("mode %s: busy flag leaked", mode)
		}
	}
}

func TestConsecutiveSubmitsAfterSettlement(t *testing.T) {
	caps := &fakeCaps{
		strategyFn: func(context.Context, string, string, []models.MediaAttachment) (string, error) {
			return "ok", nil
		},
	}
	ctrl, conv := newTestController(caps, nil)
	for i := 0; i < 3; i++ {
		if err := ctrl.Submit(context.Background(), Request{Prompt: "again", Mode: models.ModeCopywriting}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if conv.Len() != 6 {
		t.Fatalf("expected 6 messages after three lifecycles, got %d", conv.Len())
	}
}
