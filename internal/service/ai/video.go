package ai

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultVideoPollInterval = 5 * time.Second

// videoPoller abstracts the long-running Veo operation so the wait loop can
// be exercised without the remote API.
type videoPoller interface {
	Start(ctx context.Context, prompt string) (*genai.GenerateVideosOperation, error)
	Poll(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

type genaiVideoPoller struct {
	client *genai.Client
	model  string
}

func (p *genaiVideoPoller) Start(ctx context.Context, prompt string) (*genai.GenerateVideosOperation, error) {
	return p.client.Models.GenerateVideos(ctx, p.model, prompt, nil, nil)
}

func (p *genaiVideoPoller) Poll(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return p.client.Operations.GetVideosOperation(ctx, op, nil)
}

// Video renders a clip for the prompt and blocks until the remote operation
// settles or the configured timeout expires. A (nil, "", nil) return means
// the operation finished without producing a video.
func (s *Service) Video(ctx context.Context, prompt string) ([]byte, string, error) {
	op, err := waitForVideo(ctx, s.video, prompt, s.videoPollEvery, s.videoTimeout)
	if err != nil {
		return nil, "", err
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, "", nil
	}
	video := op.Response.GeneratedVideos[0].Video
	if video == nil {
		return nil, "", nil
	}
	if len(video.VideoBytes) == 0 {
		// Download fills VideoBytes in place for file-backed results.
		s.client.Files.Download(ctx, video, nil)
	}
	if len(video.VideoBytes) == 0 {
		return nil, "", nil
	}
	mime := video.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	return video.VideoBytes, mime, nil
}

// waitForVideo runs the poll loop: start the operation, then re-check on a
// fixed interval until done. The context bounds the whole wait.
func waitForVideo(ctx context.Context, poller videoPoller, prompt string, interval, timeout time.Duration) (*genai.GenerateVideosOperation, error) {
	if interval <= 0 {
		interval = defaultVideoPollInterval
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	op, err := poller.Start(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("start video generation: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("video generation: %w", ctx.Err())
		case <-ticker.C:
		}
		op, err = poller.Poll(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("poll video operation: %w", err)
		}
	}
	return op, nil
}
