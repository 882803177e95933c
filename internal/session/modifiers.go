package session

import (
	"math/rand/v2"

	"github.com/desertthunder/ytplay/internal/models"
)

// NextIndex computes the explicit-mode successor of current in a queue of n tracks.
//
// With shuffle and more than one track it picks uniformly among the indices other than current.
// Otherwise it advances by one and wraps to 0 only under [models.RepeatAll]. -1 marks the end of the queue.
func NextIndex(n, current int, mods models.PlaybackModifiers, rng *rand.Rand) int {
	if n <= 0 {
		return -1
	}

	if mods.Shuffle && n > 1 {
		if current < 0 || current >= n {
			return rng.IntN(n)
		}
		next := rng.IntN(n - 1)
		if next >= current {
			next++
		}
		return next
	}

	next := current + 1
	if next < n {
		return next
	}
	if mods.Repeat == models.RepeatAll {
		return 0
	}
	return -1
}

// PreviousIndex computes the explicit-mode predecessor of current in a queue of n tracks.
//
// Before the start it wraps to n-1 under [models.RepeatAll] or [models.RepeatOne] and returns -1 otherwise.
func PreviousIndex(n, current int, mods models.PlaybackModifiers) int {
	if n <= 0 {
		return -1
	}

	prev := current - 1
	if prev >= 0 && prev < n {
		return prev
	}
	if prev >= n {
		return n - 1
	}
	if mods.Repeat == models.RepeatAll || mods.Repeat == models.RepeatOne {
		return n - 1
	}
	return -1
}
