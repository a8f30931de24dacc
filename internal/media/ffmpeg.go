package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"

	"github.com/disintegration/imaging"
)

// FFmpegExtractor grabs the first video frame with a local ffmpeg binary.
type FFmpegExtractor struct {
	Binary string
}

// NewFFmpegExtractor returns nil when the binary is not on PATH.
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil
	}

	return &FFmpegExtractor{Binary: resolved}
}

// FirstFrame feeds the video to ffmpeg on stdin so the plaintext never touches disk.
// Containers that need seeking to find their index fail here and get no frame.
func (f *FFmpegExtractor) FirstFrame(ctx context.Context, video []byte) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Binary,
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png",
		"pipe:1")
	cmd.Stdin = bytes.NewReader(video)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	if stdout.Len() == 0 {
		return nil, ErrUnsupported
	}

	return imaging.Decode(&stdout)
}
