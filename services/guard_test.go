package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportGuard_SerializesPerKind(t *testing.T) {
	g := NewImportGuard()

	release, err := g.Acquire(KindCosts)
	require.NoError(t, err)

	_, err = g.Acquire(KindCosts)
	assert.ErrorIs(t, err, ErrImportInProgress)

	other, err := g.Acquire(KindSetup)
	require.NoError(t, err, "other kinds are independent")
	other()

	release()
	release() // second release is a no-op

	again, err := g.Acquire(KindCosts)
	require.NoError(t, err)
	again()
}

func TestImportGuard_OneWinnerUnderContention(t *testing.T) {
	g := NewImportGuard()
	var (
		wins    atomic.Int32
		wg      sync.WaitGroup
		start   = make(chan struct{})
		holding = make(chan func(), 16)
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if release, err := g.Acquire(KindMetadata); err == nil {
				wins.Add(1)
				holding <- release
			}
		}()
	}
	close(start)
	wg.Wait()
	close(holding)

	assert.Equal(t, int32(1), wins.Load())
	for release := range holding {
		release()
	}
}
