package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: time.Millisecond, Multiplier: 1}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) error {
		e := errs[calls]
		calls++
		return e
	})
	assert.Equal(t, 3, calls)
	assert.Equal(t, errs[2], err)
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) error {
		calls++
		return Permanent(errBoom)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, errBoom, err)
	assert.False(t, IsPermanent(err))
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, "op", func(context.Context) error {
		calls++
		return errBoom
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errBoom)
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()

	err := Do(ctx, Policy{Attempts: 5, Delay: time.Hour}, "op", func(context.Context) error {
		calls++
		cancel()
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_FixedDelay(t *testing.T) {
	var stamps []time.Time
	_ = Do(context.Background(), Policy{Attempts: 3, Delay: 20 * time.Millisecond}, "op", func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errBoom
	})
	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 20*time.Millisecond)
	}
}

func TestDo_ExponentialDelay(t *testing.T) {
	var stamps []time.Time
	_ = Do(context.Background(), Policy{Attempts: 3, Delay: 10 * time.Millisecond, Multiplier: 3}, "op", func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errBoom
	})
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 30*time.Millisecond)
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), fastPolicy(2), "op", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errBoom
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	v, err = DoValue(context.Background(), fastPolicy(2), "op", func(context.Context) (string, error) {
		return "partial", errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, v)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.True(t, IsPermanent(Permanent(errBoom)))
	assert.ErrorIs(t, Permanent(errBoom), errBoom)
}
