package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"facecam/internal/domain/entity"
)

func TestResults_OutOfOrderCompletionKeepsNewest(t *testing.T) {
	r := NewResults()
	size := entity.Size{Width: 640, Height: 480}

	a := oneFace(size, entity.Sad)
	a.Seq = 1
	b := oneFace(size, entity.Happy)
	b.Seq = 2

	// B завершился раньше A
	require.True(t, r.Apply(b, nil))
	require.False(t, r.Apply(a, nil))

	require.Equal(t, uint64(2), r.AppliedSeq())
	require.Equal(t, entity.Happy, r.Latest().Dominant())
}

func TestResults_ApplyCallsHookWithAppliedSet(t *testing.T) {
	r := NewResults()
	var drawn []uint64
	hook := func(set entity.ResultSet) { drawn = append(drawn, set.Seq) }

	require.True(t, r.Apply(entity.ResultSet{Seq: 1}, hook))
	require.True(t, r.Apply(entity.ResultSet{Seq: 3}, hook))
	require.False(t, r.Apply(entity.ResultSet{Seq: 2}, hook))
	require.False(t, r.Apply(entity.ResultSet{Seq: 3}, hook))

	require.Equal(t, []uint64{1, 3}, drawn)
}

func TestResults_EmptySetReplacesPrevious(t *testing.T) {
	r := NewResults()
	first := oneFace(entity.Size{Width: 10, Height: 10}, entity.Happy)
	first.Seq = 1
	r.Apply(first, nil)
	r.Apply(entity.ResultSet{Seq: 2}, nil)

	require.True(t, r.Latest().Empty())
}
