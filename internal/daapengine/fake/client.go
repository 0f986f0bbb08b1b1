// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package fake

import (
	"context"
	"fmt"

	"github.com/tomtom215/meridian/internal/daapengine"
)

var (
	_ daapengine.Dialer = (*Dialer)(nil)
	_ daapengine.Client = (*Client)(nil)
)

// Dialer builds fake Clients against a single shared Remote fixture,
// modeling repeated connects to the same simulated share.
type Dialer struct {
	Remote *Remote
}

// NewDialer returns a Dialer bound to remote.
func NewDialer(remote *Remote) *Dialer {
	return &Dialer{Remote: remote}
}

// Dial implements daapengine.Dialer.
func (d *Dialer) Dial(host string, port int) daapengine.Client {
	return &Client{
		remote: d.Remote,
		host:   host,
		port:   port,
	}
}

// Client is a deterministic in-memory daapengine.Client over a Remote
// fixture. It is not safe for concurrent use by multiple goroutines,
// matching the single-threaded RPC discipline a ClientSession applies
// to its own Client.
type Client struct {
	remote *Remote
	host   string
	port   int

	connected  bool
	disconnected  bool

	lastGeneration uint64
	lastItems      map[string]map[int64]daapengine.ItemFields
	lastPlaylists  map[int64]daapengine.PlaylistFields
}

func scopeKey(playlistID *int64) string {
	if playlistID == nil {
		return ""
	}
	return fmt.Sprintf("playlist:%d", *playlistID)
}

// Connect implements daapengine.Client.
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	if c.remote.closed {
		return fmt.Errorf("fake client connect to %s:%d: %w", c.host, c.port, daapengine.ErrNetwork)
	}
	c.connected = true
	c.lastItems = make(map[string]map[int64]daapengine.ItemFields)
	c.lastPlaylists = make(map[int64]daapengine.PlaylistFields)
	c.lastGeneration = c.remote.generation
	return nil
}

// Disconnect implements daapengine.Client.
func (c *Client) Disconnect() error {
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	c.connected = false
	c.disconnected = true
	c.remote.cond.Broadcast()
	return nil
}

func (c *Client) requireConnected() error {
	if c.disconnected {
		return daapengine.ErrCancelled
	}
	if !c.connected {
		return fmt.Errorf("fake client not connected: %w", daapengine.ErrProtocol)
	}
	return nil
}

// Databases implements daapengine.Client.
func (c *Client) Databases(ctx context.Context, update bool) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	out := make([]int64, len(c.remote.databases))
	copy(out, c.remote.databases)
	return out, nil
}

// Playlists implements daapengine.Client.
func (c *Client) Playlists(ctx context.Context, update bool) (map[int64]daapengine.PlaylistFields, []int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	if err := c.requireConnected(); err != nil {
		return nil, nil, err
	}
	if !update {
		c.lastPlaylists = make(map[int64]daapengine.PlaylistFields)
	}
	added := make(map[int64]daapengine.PlaylistFields)
	for id, fields := range c.remote.playlists {
		if prev, ok := c.lastPlaylists[id]; !ok || prev != fields {
			added[id] = fields
		}
	}
	var deleted []int64
	for id := range c.lastPlaylists {
		if _, ok := c.remote.playlists[id]; !ok {
			deleted = append(deleted, id)
		}
	}
	c.lastPlaylists = clonePlaylists(c.remote.playlists)
	return added, deleted, nil
}

// Items implements daapengine.Client.
func (c *Client) Items(ctx context.Context, meta []string, update bool, playlistID *int64) (map[int64]daapengine.ItemFields, []int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	if err := c.requireConnected(); err != nil {
		return nil, nil, err
	}

	key := scopeKey(playlistID)
	current := c.scopedItemsLocked(playlistID)

	if !update || c.lastItems[key] == nil {
		c.lastItems[key] = make(map[int64]daapengine.ItemFields)
	}
	prev := c.lastItems[key]

	added := make(map[int64]daapengine.ItemFields)
	for id, fields := range current {
		if oldFields, ok := prev[id]; !ok || oldFields != fields {
			added[id] = fields
		}
	}
	var deleted []int64
	for id := range prev {
		if _, ok := current[id]; !ok {
			deleted = append(deleted, id)
		}
	}
	c.lastItems[key] = current
	return added, deleted, nil
}

func (c *Client) scopedItemsLocked(playlistID *int64) map[int64]daapengine.ItemFields {
	out := make(map[int64]daapengine.ItemFields)
	if playlistID == nil {
		for id, fields := range c.remote.items {
			out[id] = fields
		}
		return out
	}
	members := c.remote.playlistItems[*playlistID]
	for id := range members {
		if fields, ok := c.remote.items[id]; ok {
			out[id] = fields
		}
	}
	return out
}

// Update implements daapengine.Client. It blocks until the remote's
// generation advances past the last one this client observed, ctx is
// cancelled, or Disconnect is called.
func (c *Client) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	if err := c.requireConnected(); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.remote.mu.Lock()
			c.remote.cond.Broadcast()
			c.remote.mu.Unlock()
		case <-stop:
		}
	}()

	for c.lastGeneration == c.remote.generation && !c.disconnected && !c.remote.closed && ctx.Err() == nil {
		c.remote.cond.Wait()
	}
	if c.disconnected {
		return daapengine.ErrCancelled
	}
	if c.remote.closed {
		return fmt.Errorf("fake client update on %s:%d: %w", c.host, c.port, daapengine.ErrNetwork)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.lastGeneration = c.remote.generation
	return nil
}

// DAAPGetFileRequest implements daapengine.Client.
func (c *Client) DAAPGetFileRequest(itemID int64, songFormat string) (string, error) {
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	if _, ok := c.remote.items[itemID]; !ok {
		return "", fmt.Errorf("fake daap_get_file_request item %d: %w", itemID, daapengine.ErrNotFound)
	}
	return c.remote.fileURL(itemID, songFormat)
}

// SupportsUpdate implements daapengine.Client.
func (c *Client) SupportsUpdate() bool {
	c.remote.mu.Lock()
	defer c.remote.mu.Unlock()
	return c.remote.supportsUpdate
}

func clonePlaylists(in map[int64]daapengine.PlaylistFields) map[int64]daapengine.PlaylistFields {
	out := make(map[int64]daapengine.PlaylistFields, len(in))
	for id, fields := range in {
		out[id] = fields
	}
	return out
}
