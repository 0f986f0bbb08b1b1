// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// segmentWindow is how many segments ahead of the last-served chunk a
// request is still considered sequential playback rather than a seek.
const segmentWindow = 2

// segmentDuration is the HLS target segment length.
const segmentDuration = 6 * time.Second

// Job is one running ffmpeg transcode, scoped to a single (item,
// generation) pair for one session. It owns the temp directory ffmpeg
// writes HLS segments into.
type Job struct {
	ItemID     int64
	Generation int64

	dir    string
	cmd    *exec.Cmd
	logger zerolog.Logger

	mu        sync.Mutex
	lastChunk int
	done      chan struct{}
}

// FFmpegPath is the ffmpeg binary invoked to produce segments;
// overridable in tests.
var FFmpegPath = "ffmpeg"

// newJob starts an ffmpeg process transcoding sourcePath into HLS
// segments rooted at offset, returning once the process has been
// launched (not once the first segment exists).
func newJob(ctx context.Context, sourcePath string, itemID, generation int64, offset time.Duration, logger zerolog.Logger) (*Job, error) {
	dir, err := os.MkdirTemp("", "meridian-transcode-*")
	if err != nil {
		return nil, fmt.Errorf("transcode: create segment dir: %w", err)
	}

	manifest := filepath.Join(dir, "index.m3u8")
	segPattern := filepath.Join(dir, "seg%05d.ts")

	args := []string{
		"-hide_banner", "-loglevel", "warning",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", sourcePath,
		"-c:v", "libx264", "-c:a", "aac",
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", int(segmentDuration.Seconds())),
		"-hls_list_size", "0",
		"-hls_segment_filename", segPattern,
		manifest,
	}

	cmd := exec.CommandContext(ctx, FFmpegPath, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("transcode: start ffmpeg: %w", err)
	}

	j := &Job{
		ItemID:     itemID,
		Generation: generation,
		dir:        dir,
		cmd:        cmd,
		logger:     logger.With().Int64("item_id", itemID).Int64("generation", generation).Logger(),
		done:       make(chan struct{}),
	}

	go j.wait()
	return j, nil
}

func (j *Job) wait() {
	err := j.cmd.Wait()
	if err != nil {
		j.logger.Debug().Err(err).Msg("transcode process exited")
	}
	close(j.done)
}

// isSeek reports whether requesting chunk is far enough past the last
// chunk served that it represents a seek rather than sequential
// playback, per the segmentWindow.
func (j *Job) isSeek(chunk int) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if chunk < j.lastChunk {
		return true
	}
	return chunk-j.lastChunk > segmentWindow
}

func (j *Job) markChunk(chunk int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if chunk > j.lastChunk {
		j.lastChunk = chunk
	}
}

// manifestPath returns the HLS playlist file path once it has been
// written by ffmpeg, or an error if it never appears.
func (j *Job) manifestPath(ctx context.Context) (string, error) {
	path := filepath.Join(j.dir, "index.m3u8")
	return j.waitForFile(ctx, path)
}

// segmentPath returns the path of the chunk-th segment once ffmpeg has
// produced it, or an error if the job exits first or the context is
// cancelled.
func (j *Job) segmentPath(ctx context.Context, chunk int) (string, error) {
	path := filepath.Join(j.dir, fmt.Sprintf("seg%05d.ts", chunk))
	p, err := j.waitForFile(ctx, path)
	if err == nil {
		j.markChunk(chunk)
	}
	return p, err
}

func (j *Job) waitForFile(ctx context.Context, path string) (string, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-j.done:
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
			return "", fmt.Errorf("transcode: ffmpeg exited before producing %s", filepath.Base(path))
		case <-ticker.C:
		}
	}
}

// Shutdown kills the ffmpeg process, if still running, and removes the
// segment directory. Safe to call more than once.
func (j *Job) Shutdown() {
	if j.cmd.Process != nil {
		_ = j.cmd.Process.Kill()
	}
	<-j.done
	_ = os.RemoveAll(j.dir)
}
