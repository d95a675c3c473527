package main

import (
	"errors"
)

var (
	ERR_BAD_INPUT           error = errors.New("Can't open input")
	ERR_BAD_OUTPUT          error = errors.New("Can't open output")
	ERR_STREAM_ENDED        error = errors.New("Stream ended")
	ERR_INTERRUPTED_BY_USER error = errors.New("Interrupted by user")
)
