package engine

import "errors"

var (
	// ErrEmptyHistory is returned by Replay when there is nothing
	// recorded to replay.
	ErrEmptyHistory = errors.New("engine: no message history to replay")

	// ErrReplayMismatch is returned by Replay when fewer messages
	// succeeded on replay than succeeded the first time they were
	// processed, meaning the book's state is not reproducible from the
	// journal alone.
	ErrReplayMismatch = errors.New("engine: replay did not reproduce original message outcomes")
)
