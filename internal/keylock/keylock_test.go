package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLock_SerializesSameKey(t *testing.T) {
	l := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("player:0xabc")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.Len())
}

func TestLock_OverlappingSetsDoNotDeadlock(t *testing.T) {
	l := New()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				unlock := l.Lock("a", "b")
				unlock()
			}()
			go func() {
				defer wg.Done()
				unlock := l.Lock("b", "a")
				unlock()
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock locking overlapping key sets")
	}
	assert.Equal(t, 0, l.Len())
}

func TestLock_DuplicateKeys(t *testing.T) {
	l := New()

	unlock := l.Lock("k", "k")
	assert.Equal(t, 1, l.Len())
	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())
}

func TestLock_IndependentKeys(t *testing.T) {
	l := New()

	unlockA := l.Lock("a")
	acquired := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked")
	}
	unlockA()
}
