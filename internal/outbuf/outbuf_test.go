package outbuf

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsSequenceNumbers(t *testing.T) {
	b := &Buffer{}

	assert.Equal(t, 0, b.Append("first"))
	assert.Equal(t, 1, b.Append("second"))
	assert.Equal(t, 2, b.Len())

	lines := b.Snapshot()
	require.Len(t, lines, 2)
	assert.Equal(t, Line{Seq: 0, Text: "first"}, lines[0])
	assert.Equal(t, Line{Seq: 1, Text: "second"}, lines[1])
}

func TestSnapshotIsACopy(t *testing.T) {
	b := &Buffer{}
	b.Append("only")

	snap := b.Snapshot()
	snap[0].Text = "mutated"

	assert.Equal(t, "only", b.Snapshot()[0].Text)
}

func TestRangeClampsBounds(t *testing.T) {
	b := &Buffer{}
	for i := 0; i < 5; i++ {
		b.Append(fmt.Sprintf("line %d", i))
	}

	assert.Len(t, b.Range(0, -1), 5)
	assert.Len(t, b.Range(2, -1), 3)
	assert.Len(t, b.Range(-3, 2), 2)
	assert.Len(t, b.Range(3, 100), 2)
	assert.Nil(t, b.Range(4, 4))
	assert.Nil(t, b.Range(7, 9))

	mid := b.Range(1, 3)
	require.Len(t, mid, 2)
	assert.Equal(t, 1, mid[0].Seq)
	assert.Equal(t, 2, mid[1].Seq)
}

// Snapshots taken at increasing times must be prefixes of one another while a
// writer is appending.
func TestConcurrentSnapshotsArePrefixCompatible(t *testing.T) {
	b := &Buffer{}
	const total = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			b.Append(fmt.Sprintf("line %d", i))
		}
	}()

	var prev []Line
	for i := 0; i < 200; i++ {
		snap := b.Snapshot()
		require.GreaterOrEqual(t, len(snap), len(prev))
		for j, line := range prev {
			require.Equal(t, line, snap[j])
		}
		for j, line := range snap {
			require.Equal(t, j, line.Seq)
		}
		prev = snap
	}
	wg.Wait()

	assert.Equal(t, total, b.Len())
}
