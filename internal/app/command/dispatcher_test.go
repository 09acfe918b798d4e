package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

type harness struct {
	d     *Dispatcher
	gate  *fakeGate
	clock *fakeClock
	runs  atomic.Int32
}

// newHarness arma un dispatcher con un comando "echo" (guild, 3s de cooldown) y lo que se pase extra.
func newHarness(t *testing.T, extra ...Command) *harness {
	t.Helper()
	h := &harness{
		gate:  &fakeGate{allowed: map[string]bool{"g-ok": true}},
		clock: newFakeClock(),
	}
	echo := Command{
		Descriptor: Descriptor{Name: "echo", Cooldown: 3 * time.Second, Params: []Param{{Name: "text", Required: true}}},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			h.runs.Add(1)
			text, err := inv.RequireParam("text")
			if err != nil {
				return nil, err
			}
			return Success{Message: text}, nil
		},
	}
	cat, err := NewCatalog(append([]Command{echo, Ping()}, extra...)...)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	h.d = NewDispatcher(cat, h.gate, discardLogger(), Options{
		Timeout:       time.Second,
		AccessContact: "owner@example.com",
		SelfHostURL:   "https://example.com/self-host",
		Now:           h.clock.Now,
	})
	return h
}

func inv(name, guild string, params map[string]string) Invocation {
	return Invocation{CommandName: name, GuildID: guild, UserID: "u1", Params: params, Source: SourceSlash}
}

func TestDispatchUnknownCommand(t *testing.T) {
	h := newHarness(t)
	res := h.d.Dispatch(context.Background(), inv("dance", "g-ok", nil))
	f, ok := res.(Failure)
	if !ok || f.Message != "unknown command" || !errors.Is(f.Cause, domain.ErrUnknownCommand) {
		t.Fatalf("res = %#v", res)
	}
	if h.gate.calls != 0 {
		t.Error("gate must not be consulted for unknown commands")
	}
}

func TestDispatchUnauthorizedGuild(t *testing.T) {
	h := newHarness(t)
	res := h.d.Dispatch(context.Background(), inv("echo", "g-nope", map[string]string{"text": "x"}))
	u, ok := res.(Unauthorized)
	if !ok {
		t.Fatalf("res = %#v, want Unauthorized", res)
	}
	if !strings.Contains(u.Message, "owner@example.com") || !strings.Contains(u.Message, "self-host") {
		t.Errorf("message lacks contact/self-host hint: %q", u.Message)
	}
	if h.runs.Load() != 0 {
		t.Error("handler ran for an unauthorized guild")
	}
}

func TestDispatchGuildCommandInDM(t *testing.T) {
	h := newHarness(t)
	res := h.d.Dispatch(context.Background(), inv("echo", "", map[string]string{"text": "x"}))
	if _, ok := res.(Unauthorized); !ok {
		t.Fatalf("res = %#v, want Unauthorized", res)
	}
}

func TestDispatchGlobalBypassesGate(t *testing.T) {
	h := newHarness(t)
	res := h.d.Dispatch(context.Background(), inv("ping", "g-nope", nil))
	if _, ok := res.(Success); !ok {
		t.Fatalf("res = %#v, want Success", res)
	}
	if h.gate.calls != 0 {
		t.Error("global command consulted the gate")
	}
}

func TestDispatchRequiredPermissions(t *testing.T) {
	wipe := Command{
		Descriptor: Descriptor{Name: "wipe", RequiredPermissions: []string{PermManageMessages}},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			return Success{Message: "wiped"}, nil
		},
	}
	h := newHarness(t, wipe)

	res := h.d.Dispatch(context.Background(), inv("wipe", "g-ok", nil))
	if _, ok := res.(Unauthorized); !ok {
		t.Fatalf("without permission: %#v", res)
	}

	in := inv("wipe", "g-ok", nil)
	in.Permissions = []string{PermManageMessages}
	if _, ok := h.d.Dispatch(context.Background(), in).(Success); !ok {
		t.Error("with permission should succeed")
	}

	in.Permissions = []string{PermAdministrator}
	if _, ok := h.d.Dispatch(context.Background(), in).(Success); !ok {
		t.Error("administrator implies every permission")
	}
}

func TestDispatchCooldown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := map[string]string{"text": "hi"}

	if _, ok := h.d.Dispatch(ctx, inv("echo", "g-ok", p)).(Success); !ok {
		t.Fatal("first echo should succeed")
	}

	h.clock.Advance(2 * time.Second)
	res := h.d.Dispatch(ctx, inv("echo", "g-ok", p))
	cd, ok := res.(Cooldown)
	if !ok {
		t.Fatalf("res = %#v, want Cooldown", res)
	}
	if cd.RemainingSeconds() != 1 || cd.Command != "echo" {
		t.Errorf("cooldown = %+v", cd)
	}
	if h.runs.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", h.runs.Load())
	}

	// el rechazo no refresca la ventana
	h.clock.Advance(time.Second)
	if _, ok := h.d.Dispatch(ctx, inv("echo", "g-ok", p)).(Success); !ok {
		t.Error("echo at t+N should run")
	}
}

func TestDispatchFailureDoesNotStartCooldown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.d.Dispatch(ctx, inv("echo", "g-ok", nil))
	f, ok := res.(Failure)
	if !ok || !errors.Is(f.Cause, domain.ErrInvalidParameters) {
		t.Fatalf("res = %#v, want invalid parameters failure", res)
	}
	if !strings.Contains(f.Message, "/echo <text>") {
		t.Errorf("failure should carry usage, got %q", f.Message)
	}
	if _, ok := h.d.Dispatch(ctx, inv("echo", "g-ok", map[string]string{"text": "x"})).(Success); !ok {
		t.Error("a failed run must not leave a cooldown behind")
	}
}

func TestDispatchHandlerFaults(t *testing.T) {
	boom := Command{
		Descriptor: Descriptor{Name: "boom"},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			panic("kaboom")
		},
	}
	store := Command{
		Descriptor: Descriptor{Name: "store"},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			return nil, fmt.Errorf("queue append: %w: %w", domain.ErrStoreUnavailable, errors.New("dial tcp: refused"))
		},
	}
	other := Command{
		Descriptor: Descriptor{Name: "other"},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			return nil, errors.New("weird")
		},
	}
	slow := Command{
		Descriptor: Descriptor{Name: "slow"},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	nilres := Command{
		Descriptor: Descriptor{Name: "nilres"},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			return nil, nil
		},
	}
	h := newHarness(t, boom, store, other, slow, nilres)
	h.d.opts.Timeout = 20 * time.Millisecond

	cases := map[string]error{
		"boom":   domain.ErrHandlerFault,
		"store":  domain.ErrStoreUnavailable,
		"other":  domain.ErrHandlerFault,
		"slow":   context.DeadlineExceeded,
		"nilres": domain.ErrHandlerFault,
	}
	for name, want := range cases {
		res := h.d.Dispatch(context.Background(), inv(name, "g-ok", nil))
		f, ok := res.(Failure)
		if !ok {
			t.Errorf("%s: res = %#v, want Failure", name, res)
			continue
		}
		if !errors.Is(f.Cause, want) {
			t.Errorf("%s: cause = %v, want %v", name, f.Cause, want)
		}
	}
}

func TestDispatchConcurrentSameUserSingleExecution(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	hold := Command{
		Descriptor: Descriptor{Name: "hold", Cooldown: time.Minute},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			runs.Add(1)
			<-release
			return Success{}, nil
		},
	}
	h := newHarness(t, hold)

	var wg sync.WaitGroup
	results := make(chan Result, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- h.d.Dispatch(context.Background(), inv("hold", "g-ok", nil))
		}()
	}
	// los 9 rechazados vuelven sin esperar al handler
	for i := 0; i < 9; i++ {
		if _, ok := (<-results).(Cooldown); !ok {
			t.Error("expected Cooldown for concurrent duplicate")
		}
	}
	close(release)
	wg.Wait()
	if _, ok := (<-results).(Success); !ok {
		t.Error("the reserved invocation should succeed")
	}
	if runs.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", runs.Load())
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		res       Result
		ephemeral bool
		contains  string
	}{
		{Success{Message: "queued"}, false, "queued"},
		{Success{Message: "secret", Ephemeral: true}, true, "secret"},
		{Success{}, false, "Listo"},
		{Failure{Message: "nope"}, true, "nope"},
		{Cooldown{Command: "play", Remaining: 1500 * time.Millisecond}, true, "2s"},
		{Unauthorized{Message: "denied"}, true, "denied"},
	}
	for _, tc := range cases {
		r := Render(tc.res)
		if r.Ephemeral != tc.ephemeral || !strings.Contains(r.Content, tc.contains) {
			t.Errorf("Render(%#v) = %+v", tc.res, r)
		}
	}
}

func TestErrMapsResults(t *testing.T) {
	cases := []struct {
		res  Result
		want error
	}{
		{Cooldown{Command: "play"}, domain.ErrCooldownActive},
		{Unauthorized{}, domain.ErrUnauthorizedGuild},
		{Failure{}, domain.ErrHandlerFault},
		{Failure{Cause: domain.ErrInvalidParameters}, domain.ErrInvalidParameters},
	}
	for _, tc := range cases {
		if got := Err(tc.res); !errors.Is(got, tc.want) {
			t.Errorf("Err(%#v) = %v, want %v", tc.res, got, tc.want)
		}
	}
	if err := Err(Success{}); err != nil {
		t.Errorf("Err(Success) = %v", err)
	}
}
