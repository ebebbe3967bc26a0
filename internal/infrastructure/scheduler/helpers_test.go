package scheduler_test

import (
	"context"
	"sync"
	"time"

	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/domain/value"
)

// fakeFinalizer отвечает на вызовы Finalize заданными результатами по очереди;
// после исчерпания повторяет последний.
type fakeFinalizer struct {
	mu      sync.Mutex
	replies []reply
	calls   []int64
}

type reply struct {
	result auction.FinalizeResult
	err    error
}

func (f *fakeFinalizer) Finalize(_ context.Context, itemID int64) (auction.FinalizeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, itemID)

	if len(f.replies) == 0 {
		return auction.FinalizeResult{ItemID: itemID, Outcome: value.OutcomeSold}, nil
	}

	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	r.result.ItemID = itemID

	return r.result, r.err
}

func (f *fakeFinalizer) Calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int64(nil), f.calls...)
}

func sold() reply {
	return reply{result: auction.FinalizeResult{Outcome: value.OutcomeSold}}
}

func notDue(end time.Time) reply {
	return reply{result: auction.FinalizeResult{Outcome: value.OutcomeNotDue, EndTime: end}}
}

func failed(err error) reply {
	return reply{err: err}
}
