// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package transcode

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/meridian/internal/metrics"
)

// SessionID identifies one DAAP client connection for the purpose of
// transcode-job ownership; servercontroller assigns these (sharing the
// numeric value it hands catalog.SessionID, but this package never
// imports internal/catalog).
type SessionID uint64

// ErrShuttingDown is returned by GetFile once the manager has begun an
// orderly shutdown; no new transcode job will be created past that
// point.
var ErrShuttingDown = errors.New("transcode: manager is shutting down")

// Request describes one get_file call.
type Request struct {
	ItemID     int64
	Generation int64
	Ext        string // "ts", "m3u8", "coverart", or empty for the raw file
	Session    SessionID
	SourcePath string // underlying file, or cover art path for ext == "coverart"
	Offset     time.Duration
	Chunk      int // meaningful only when Ext == "ts"
}

// Manager owns every session's transcode job behind a single mutex,
// independent of the catalog's. Job replacement and Shutdown always
// kill the superseded process outside the lock.
type Manager struct {
	logger zerolog.Logger

	mu         sync.Mutex
	jobs       map[SessionID]*Job
	inShutdown bool
}

// NewManager returns an empty transcode job manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		logger: logger,
		jobs:   make(map[SessionID]*Job),
	}
}

// GetFile resolves one get_file request to an open file handle and a
// filename, implementing the full ext dispatch: ts/m3u8 route through
// (and may replace) a per-session transcode job; coverart and the
// default case open a plain file directly, the latter discarding any
// outstanding transcode job for the session since direct-file serving
// means the client isn't using HLS for this item.
func (m *Manager) GetFile(ctx context.Context, req Request) (io.ReadCloser, string, error) {
	switch req.Ext {
	case "ts", "m3u8":
		return m.getTranscoded(ctx, req)
	case "coverart":
		f, err := os.Open(req.SourcePath)
		if err != nil {
			return nil, "", nil
		}
		return f, "coverart", nil
	default:
		m.discardSession(req.Session)
		f, err := os.Open(req.SourcePath)
		if err != nil {
			return nil, "", nil
		}
		if req.Offset > 0 {
			if _, err := f.Seek(int64(req.Offset), io.SeekStart); err != nil {
				f.Close()
				return nil, "", nil
			}
		}
		return f, "", nil
	}
}

func (m *Manager) getTranscoded(ctx context.Context, req Request) (io.ReadCloser, string, error) {
	job, stale, err := m.resolveJob(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if stale {
		m.logger.Debug().Int64("item_id", req.ItemID).Int64("generation", req.Generation).Msg("dropping stale transcode request")
		return nil, "", nil
	}

	if req.Ext == "m3u8" {
		path, err := job.manifestPath(ctx)
		if err != nil {
			return nil, "", nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, "", nil
		}
		return f, "index.m3u8", nil
	}

	path, err := job.segmentPath(ctx, req.Chunk)
	if err != nil {
		return nil, "", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil
	}
	return f, "seg.ts", nil
}

// resolveJob looks up or creates the session's transcode job, applying
// the replacement rules: a mismatched item, a newer generation, or a
// seek (per Job.isSeek) all tear down the old job and start fresh. A
// generation older than the current job's is reported stale and
// leaves the existing job untouched.
func (m *Manager) resolveJob(ctx context.Context, req Request) (job *Job, stale bool, err error) {
	m.mu.Lock()
	if m.inShutdown {
		m.mu.Unlock()
		return nil, false, ErrShuttingDown
	}

	existing := m.jobs[req.Session]
	var old *Job
	var replaceReason string

	switch {
	case existing == nil:
		// fall through to create below
	case existing.ItemID != req.ItemID:
		old, replaceReason = existing, "item_changed"
	case req.Generation > existing.Generation:
		old, replaceReason = existing, "generation_advanced"
	case req.Generation < existing.Generation:
		m.mu.Unlock()
		metrics.TranscodeStaleRequestsTotal.Inc()
		return nil, true, nil
	case req.Ext == "ts" && existing.isSeek(req.Chunk):
		old, replaceReason = existing, "seek"
	default:
		job = existing
	}

	if job != nil {
		m.mu.Unlock()
		if old != nil {
			m.retireJob(old, replaceReason)
		}
		return job, false, nil
	}

	job, err = newJob(ctx, req.SourcePath, req.ItemID, req.Generation, req.Offset, m.logger)
	if err != nil {
		m.mu.Unlock()
		if old != nil {
			m.retireJob(old, replaceReason)
		}
		return nil, false, err
	}
	m.jobs[req.Session] = job
	m.mu.Unlock()
	metrics.TranscodeJobsActive.Inc()

	if old != nil {
		m.retireJob(old, replaceReason)
	}
	return job, false, nil
}

// retireJob shuts down a superseded job and records the replacement
// cause and the resulting drop in active job count.
func (m *Manager) retireJob(job *Job, reason string) {
	metrics.TranscodeJobsReplacedTotal.WithLabelValues(reason).Inc()
	metrics.TranscodeJobsActive.Dec()
	job.Shutdown()
}

// discardSession shuts down and forgets a session's transcode job, if
// any. Used when a request bypasses HLS entirely (a plain file open).
func (m *Manager) discardSession(session SessionID) {
	m.mu.Lock()
	job := m.jobs[session]
	delete(m.jobs, session)
	m.mu.Unlock()
	if job != nil {
		metrics.TranscodeJobsActive.Dec()
		job.Shutdown()
	}
}

// SessionFinished shuts down the session's transcode job, if any,
// called once the DAAP server reports the session has ended.
func (m *Manager) SessionFinished(session SessionID) {
	m.discardSession(session)
}

// Shutdown sets the in-shutdown flag under the manager's lock and
// shuts down every outstanding job, closing the window in which a new
// job could be created concurrently with shutdown: resolveJob always
// checks inShutdown before creating one.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.inShutdown = true
	jobs := m.jobs
	m.jobs = make(map[SessionID]*Job)
	m.mu.Unlock()

	for _, job := range jobs {
		metrics.TranscodeJobsActive.Dec()
		job.Shutdown()
	}
}
