package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRegistry_NewRunCancelsPrevious(t *testing.T) {
	r := NewRunRegistry()

	first, releaseFirst := r.Begin(context.Background(), "s1")
	second, releaseSecond := r.Begin(context.Background(), "s1")
	other, releaseOther := r.Begin(context.Background(), "s2")

	assert.Error(t, first.Err())
	assert.True(t, Superseded(first))
	assert.NoError(t, second.Err())
	assert.NoError(t, other.Err())
	assert.Equal(t, 2, r.Active())

	// releasing a superseded run must not drop the newer one
	releaseFirst()
	assert.Equal(t, 2, r.Active())
	assert.NoError(t, second.Err())

	releaseSecond()
	releaseOther()
	assert.Equal(t, 0, r.Active())
	assert.False(t, Superseded(second))
	assert.Error(t, second.Err())
}

func TestRunRegistry_ParentCancellation(t *testing.T) {
	r := NewRunRegistry()
	parent, cancel := context.WithCancel(context.Background())

	ctx, release := r.Begin(parent, "s")
	defer release()

	cancel()
	assert.Error(t, ctx.Err())
	assert.False(t, Superseded(ctx))
}
