package testutil

import "errors"

// ErrSimulated is returned by FakeAPI for injected failures.
var ErrSimulated = errors.New("simulated error for testing")
