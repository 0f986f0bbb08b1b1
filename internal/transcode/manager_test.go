// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package transcode

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installFakeFFmpeg points FFmpegPath at a script that parses just
// enough of the real ffmpeg invocation (the -hls_segment_filename
// pattern and the trailing manifest path) to write out a manifest and
// a handful of segment files immediately, then block until killed -
// enough to exercise Job/Manager without shelling out to real ffmpeg.
func installFakeFFmpeg(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fakeffmpeg.sh")
	body := `#!/bin/sh
pattern=""
manifest=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-hls_segment_filename" ]; then
    pattern="$arg"
  fi
  prev="$arg"
  manifest="$arg"
done
segdir=$(dirname "$pattern")
i=0
while [ "$i" -lt 5 ]; do
  n=$(printf "%05d" "$i")
  segfile=$(echo "$pattern" | sed "s/%05d/$n/")
  : > "$segfile"
  i=$((i + 1))
done
echo "#EXTM3U" > "$manifest"
trap 'exit 0' TERM INT
while true; do sleep 1; done
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	old := FFmpegPath
	FFmpegPath = script
	t.Cleanup(func() { FFmpegPath = old })
}

func TestManagerGetFileCreatesJobAndServesManifest(t *testing.T) {
	installFakeFFmpeg(t)
	m := NewManager(zerolog.Nop())

	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("fake"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, name, err := m.GetFile(ctx, Request{
		ItemID: 1, Generation: 1, Ext: "m3u8", Session: 1, SourcePath: src,
	})
	require.NoError(t, err)
	require.NotNil(t, f)
	defer f.Close()
	assert.Equal(t, "index.m3u8", name)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#EXTM3U")

	m.Shutdown()
}

func TestManagerGetFileServesSegmentAndReusesJob(t *testing.T) {
	installFakeFFmpeg(t)
	m := NewManager(zerolog.Nop())
	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("fake"), 0o644))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "m3u8", Session: 1, SourcePath: src})
	require.NoError(t, err)

	m.mu.Lock()
	job := m.jobs[SessionID(1)]
	m.mu.Unlock()

	f, name, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "ts", Session: 1, SourcePath: src, Chunk: 0})
	require.NoError(t, err)
	require.NotNil(t, f)
	f.Close()
	assert.Equal(t, "seg.ts", name)

	m.mu.Lock()
	sameJob := m.jobs[SessionID(1)]
	m.mu.Unlock()
	assert.Same(t, job, sameJob, "a second request for the same item/generation must reuse the existing job")

	m.Shutdown()
}

func TestManagerGetFileReplacesJobOnSeekBeyondWindow(t *testing.T) {
	installFakeFFmpeg(t)
	m := NewManager(zerolog.Nop())
	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("fake"), 0o644))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "ts", Session: 1, SourcePath: src, Chunk: 0})
	require.NoError(t, err)
	m.mu.Lock()
	first := m.jobs[SessionID(1)]
	m.mu.Unlock()

	_, _, err = m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "ts", Session: 1, SourcePath: src, Chunk: 20})
	require.NoError(t, err)
	m.mu.Lock()
	second := m.jobs[SessionID(1)]
	m.mu.Unlock()

	assert.NotSame(t, first, second, "a seek far beyond the served window must replace the transcode job")

	m.Shutdown()
}

func TestManagerGetFileDropsStaleOlderGeneration(t *testing.T) {
	installFakeFFmpeg(t)
	m := NewManager(zerolog.Nop())
	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("fake"), 0o644))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 2, Ext: "m3u8", Session: 1, SourcePath: src})
	require.NoError(t, err)

	f, _, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "m3u8", Session: 1, SourcePath: src})
	require.NoError(t, err)
	assert.Nil(t, f, "a request bearing an older generation than the active job must be dropped as stale")

	m.Shutdown()
}

func TestManagerGetFileDefaultExtDiscardsTranscodeJob(t *testing.T) {
	installFakeFFmpeg(t)
	m := NewManager(zerolog.Nop())
	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("hello world"), 0o644))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "m3u8", Session: 1, SourcePath: src})
	require.NoError(t, err)

	f, name, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Session: 1, SourcePath: src})
	require.NoError(t, err)
	require.NotNil(t, f)
	defer f.Close()
	assert.Equal(t, "", name)

	m.mu.Lock()
	_, stillPresent := m.jobs[SessionID(1)]
	m.mu.Unlock()
	assert.False(t, stillPresent, "a plain file request must discard any outstanding transcode job for the session")
}

func TestManagerShutdownRejectsNewJobs(t *testing.T) {
	installFakeFFmpeg(t)
	m := NewManager(zerolog.Nop())
	m.Shutdown()

	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("fake"), 0o644))
	ctx := context.Background()

	f, _, err := m.GetFile(ctx, Request{ItemID: 1, Generation: 1, Ext: "m3u8", Session: 1, SourcePath: src})
	assert.ErrorIs(t, err, ErrShuttingDown)
	assert.Nil(t, f)
}

func TestManagerGetFileCoverArtOpensDirectly(t *testing.T) {
	m := NewManager(zerolog.Nop())
	art := filepath.Join(t.TempDir(), "cover.jpg")
	require.NoError(t, os.WriteFile(art, []byte("jpeg-bytes"), 0o644))

	f, name, err := m.GetFile(context.Background(), Request{Ext: "coverart", SourcePath: art})
	require.NoError(t, err)
	require.NotNil(t, f)
	defer f.Close()
	assert.Equal(t, "coverart", name)
}
