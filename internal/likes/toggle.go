// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package likes

import (
	"context"
)

// Outcome is the gateway's answer to a like or unlike call.
type Outcome struct {
	// LikeCount is the authoritative count, when the backend sent one.
	LikeCount *int
}

// LikeClient performs the like and unlike calls.
type LikeClient interface {
	Like(ctx context.Context, id string) (Outcome, error)
	Unlike(ctx context.Context, id string) (Outcome, error)
}

// Toggler flips like state optimistically through a [LikeClient].
type Toggler struct {
	store  *Store
	client LikeClient
}

// NewToggler constructs a [Toggler] writing into store.
func NewToggler(store *Store, client LikeClient) *Toggler {
	return &Toggler{store: store, client: client}
}

/*
Toggle flips the like state of a portfolio.

The store shows the flipped state immediately. When the call succeeds the
count is replaced by the authoritative like_count, if one was returned; the
liked flag keeps the optimistic value because the backend does not echo it.
When the call fails the state captured before the flip is restored.

If another toggle on the same id started while this one was in flight, this
response is stale: it is discarded without reconciling or rolling back, and
Toggle returns the current state with a nil error.

Returns:
  - State: The state after the call settled
  - error: The client error, after rollback
*/
func (toggler *Toggler) Toggle(ctx context.Context, id string) (State, error) {
	snapshot, optimistic, sequence := toggler.store.begin(id)

	var (
		outcome Outcome
		err     error
	)
	if optimistic.IsLiked {
		outcome, err = toggler.client.Like(ctx, id)
	} else {
		outcome, err = toggler.client.Unlike(ctx, id)
	}

	if err != nil {
		state, applied := toggler.store.settle(id, sequence, snapshot)
		if !applied {
			return state, nil
		}
		return state, err
	}

	next := optimistic
	if outcome.LikeCount != nil {
		next.LikeCount = max(*outcome.LikeCount, 0)
	}

	state, _ := toggler.store.settle(id, sequence, next)
	return state, nil
}
