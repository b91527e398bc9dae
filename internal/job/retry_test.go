package job

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"spritesplit/internal/grid"
)

func TestRetryTransientOnce(t *testing.T) {
	p := Policy{MaxAttempts: 2, Delay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("flaky")
	})
	if err == nil {
		t.Fatal("expect failure after budget spent")
	}
	if calls != 2 {
		t.Fatalf("fn ran %d times, want 2", calls)
	}
}

func TestRetryRecoversOnSecondAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 2, Delay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Fatalf("fn ran %d times, want 2", calls)
	}
}

func TestRetrySkipsNonTransient(t *testing.T) {
	p := Policy{MaxAttempts: 2, Delay: time.Millisecond}
	for _, failure := range []error{
		InputError(errors.New("bad png"), "load"),
		ConfigError(errors.New("no lines"), "grid"),
		CollaboratorError(errors.New("matting down"), "remove"),
	} {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			return failure
		})
		if err == nil {
			t.Fatalf("%v: expect failure", failure)
		}
		if calls != 1 {
			t.Fatalf("%v: fn ran %d times, want 1", failure, calls)
		}
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Policy{MaxAttempts: 2, Delay: time.Hour}
	err := p.Do(ctx, func() error { return errors.New("flaky") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestClassOf(t *testing.T) {
	cases := []struct {
		err  error
		want Class
	}{
		{errors.New("unknown"), ClassTransient},
		{InputError(errors.New("x"), "load"), ClassInput},
		{ConfigError(errors.New("x"), "grid"), ClassConfig},
		{CollaboratorError(errors.New("x"), "gen"), ClassCollaborator},
		{errors.Wrap(InputError(errors.New("x"), "load"), "outer"), ClassInput},
		{&grid.ErrNoGrid{Axis: "rows"}, ClassConfig},
		{errors.Wrap(&grid.ErrNoGrid{Axis: "cols"}, "split"), ClassConfig},
	}
	for _, c := range cases {
		if got := ClassOf(c.err); got != c.want {
			t.Errorf("ClassOf(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
