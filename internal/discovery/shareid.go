// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package discovery

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/tomtom215/meridian/internal/models"
)

// shareIDFor derives a stable id for a remote share from its network
// address. It survives renames: only host and port feed the hash, so
// an mDNS rename of the same endpoint maps to the same id.
func shareIDFor(host string, port int) models.ShareID {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(fmt.Sprintf("discovery: blake2b-128 unavailable: %v", err))
	}
	fmt.Fprintf(h, "%s:%d", host, port)
	sum := h.Sum(nil)
	return models.ShareID(binary.BigEndian.Uint64(sum[:8]))
}
