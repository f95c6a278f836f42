package workflow

import (
	"sort"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the lock
// ordering discipline the advisory-lock helpers rely on: multi-order
// operations always acquire in sorted id order, so overlapping pairs
// cannot deadlock, and mutations on one order are serialized.

type fakeLockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFakeLockTable() *fakeLockTable {
	return &fakeLockTable{locks: map[string]*sync.Mutex{}}
}

func (f *fakeLockTable) lockFor(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.locks[id]
	if m == nil {
		m = &sync.Mutex{}
		f.locks[id] = m
	}
	return m
}

// acquireAll mirrors AcquireOrderPostingLocks: dedupe, sort, lock in order.
func (f *fakeLockTable) acquireAll(ids ...string) func() {
	sorted := utils.UniqueSlice(ids)
	sort.Strings(sorted)
	held := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		m := f.lockFor(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func TestOrderLocks_SortedAcquisitionAvoidsDeadlock(t *testing.T) {
	table := newFakeLockTable()

	// Workers hammer overlapping order pairs in both directions. With
	// unsorted acquisition this deadlocks almost immediately.
	pairs := [][]string{
		{"order-a", "order-b"},
		{"order-b", "order-a"},
		{"order-b", "order-c"},
		{"order-c", "order-b"},
		{"order-a", "order-c"},
		{"order-c", "order-a"},
	}

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			for _, pair := range pairs {
				wg.Add(1)
				go func(pair []string) {
					defer wg.Done()
					release := table.acquireAll(pair...)
					defer release()
				}(pair)
			}
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("lock workers did not finish; ordering discipline broken")
	}
}

func TestOrderLocks_DuplicateIdsCollapse(t *testing.T) {
	table := newFakeLockTable()

	// The same id passed twice must lock once; a second Lock on the same
	// mutex would self-deadlock.
	done := make(chan struct{})
	go func() {
		release := table.acquireAll("order-x", "order-x", "order-x")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("duplicate ids self-deadlocked")
	}
}

func TestOrderLocks_SerializePerOrder(t *testing.T) {
	table := newFakeLockTable()

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := table.acquireAll("order-1")
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("expected at most 1 concurrent mutation per order, saw %d", maxInCritical)
	}
}
