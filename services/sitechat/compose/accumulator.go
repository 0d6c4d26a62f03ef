// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compose

import (
	"fmt"
	"os"
	"sync"

	"github.com/awnumar/memguard"
)

// AccumulatorBufferSize bounds an accumulated answer. 512 KB is ample
// for long model responses.
const AccumulatorBufferSize = 512 * 1024

// TokenAccumulator collects streamed tokens so the full answer can be
// normalized and logged after the response closes. Safe for concurrent
// use.
type TokenAccumulator interface {
	Write(token string) error
	// Finalize returns the accumulated answer and wipes the buffer.
	// The accumulator cannot be reused afterwards.
	Finalize() (string, error)
	// Destroy wipes the buffer without returning data. Idempotent.
	Destroy()
}

// NewTokenAccumulator returns a memguard-backed accumulator whose
// buffer is locked out of swap. Set SITECHAT_INSECURE_MEMORY=true on
// systems with restrictive mlock limits to fall back to plain memory.
func NewTokenAccumulator() TokenAccumulator {
	if os.Getenv("SITECHAT_INSECURE_MEMORY") == "true" {
		return &plainAccumulator{data: make([]byte, 0, 4096)}
	}
	return &secureAccumulator{buffer: memguard.NewBuffer(AccumulatorBufferSize)}
}

type secureAccumulator struct {
	mu        sync.Mutex
	buffer    *memguard.LockedBuffer
	offset    int
	destroyed bool
}

func (a *secureAccumulator) Write(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return fmt.Errorf("accumulator already destroyed")
	}
	if a.offset+len(token) > AccumulatorBufferSize {
		return fmt.Errorf("answer buffer overflow: response exceeds %d bytes", AccumulatorBufferSize)
	}
	a.buffer.Melt()
	copy(a.buffer.Bytes()[a.offset:], token)
	a.offset += len(token)
	return nil
}

func (a *secureAccumulator) Finalize() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return "", fmt.Errorf("accumulator already destroyed")
	}
	answer := string(a.buffer.Bytes()[:a.offset])
	a.buffer.Destroy()
	a.destroyed = true
	return answer, nil
}

func (a *secureAccumulator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.buffer.Destroy()
	a.destroyed = true
}

// plainAccumulator keeps tokens in ordinary memory. Wiping is best
// effort only.
type plainAccumulator struct {
	mu        sync.Mutex
	data      []byte
	destroyed bool
}

func (a *plainAccumulator) Write(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return fmt.Errorf("accumulator already destroyed")
	}
	if len(a.data)+len(token) > AccumulatorBufferSize {
		return fmt.Errorf("answer buffer overflow: response exceeds %d bytes", AccumulatorBufferSize)
	}
	a.data = append(a.data, token...)
	return nil
}

func (a *plainAccumulator) Finalize() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return "", fmt.Errorf("accumulator already destroyed")
	}
	answer := string(a.data)
	a.wipe()
	return answer, nil
}

func (a *plainAccumulator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.wipe()
}

func (a *plainAccumulator) wipe() {
	for i := range a.data {
		a.data[i] = 0
	}
	a.data = nil
	a.destroyed = true
}
