// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor implements the poller abstraction (api.Poller), the
// lock-free pollable mailbox used for cross-worker dispatch, and the
// fixed-size worker pool (api.Reactor) that owns one poller and one
// mailbox per OS thread.
package reactor
