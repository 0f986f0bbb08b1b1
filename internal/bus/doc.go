// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

/*
Package bus provides the UI message bus: a hub-and-spoke WebSocket
broadcaster that notifies connected frontend clients of sharing engine
lifecycle events.

It carries none of the catalog itself (that is DAAP's job) — only the
events a user-facing tab bar needs: a share appeared or disappeared, a
connection attempt failed, the visible tab set changed, or a session
changed state.

Key Components:

  - Hub: central broker that manages client connections and broadcasts
  - Client: a single WebSocket connection with read/write goroutines
  - Message: a typed envelope for each event type

Usage:

	hub := bus.NewHub()
	go hub.RunWithContext(ctx)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
	    conn, _ := upgrader.Upgrade(w, r, nil)
	    client := bus.NewClient(hub, conn)
	    hub.Register <- client
	    client.Start()
	})

	hub.BroadcastShareAdded(shareID, name)
	hub.BroadcastShareDisappeared(shareID)
	hub.BroadcastConnectFailed(shareID, "connection refused")
	hub.BroadcastTabsChanged(shareID, []string{"library", "podcast"})
*/
package bus
