package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLocks_SerializesAndForgetsIdleKeys(t *testing.T) {
	locks := newKeyedLocks()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("session:s1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.Len())

	unlock := locks.Lock("session:s2")
	assert.Equal(t, 1, locks.Len())
	other := locks.Lock("campaign:c1")
	assert.Equal(t, 2, locks.Len())
	other()
	unlock()
	assert.Zero(t, locks.Len())
}
