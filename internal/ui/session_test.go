package ui

import (
	"errors"
	"testing"
)

func TestSessionManager_StartStop(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager()

	store, shell, err := sm.Start("sess-1", State{})
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	if store == nil || shell == nil {
		t.Fatal("Start() returned nil store/shell")
	}
	if !sm.IsActive() {
		t.Fatal("IsActive() = false after Start")
	}
	if got := sm.Info().SessionID; got != "sess-1" {
		t.Fatalf("Info().SessionID = %q", got)
	}

	if err := sm.Stop(); err != nil {
		t.Fatalf("Stop() err = %v", err)
	}
	if sm.IsActive() {
		t.Fatal("IsActive() = true after Stop")
	}
	if sm.Store() != nil || sm.Shell() != nil {
		t.Fatal("Store()/Shell() should be nil after Stop")
	}
}

func TestSessionManager_DoubleStartFails(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager()
	if _, _, err := sm.Start("a", State{}); err != nil {
		t.Fatalf("first Start() err = %v", err)
	}
	if _, _, err := sm.Start("b", State{}); err == nil {
		t.Fatal("second Start() should fail while a session is active")
	}
}

func TestSessionManager_StopWithoutStartFails(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager()
	if err := sm.Stop(); err == nil {
		t.Fatal("Stop() without Start should fail")
	}
}

func TestSessionManager_ClosersRunInReverseOrderAndErrorsAreCollected(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager()
	_, _, _ = sm.Start("sess-1", State{})

	var order []int
	sm.AddCloser(func() error { order = append(order, 1); return nil })
	sm.AddCloser(func() error { order = append(order, 2); return errors.New("boom") })
	sm.AddCloser(func() error { order = append(order, 3); return nil })

	err := sm.Stop()
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Stop() err = %v, want boom", err)
	}
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSessionManager_StartAfterStopReusesManager(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager()
	_, _, _ = sm.Start("first", State{})
	_ = sm.Stop()

	_, _, err := sm.Start("second", State{})
	if err != nil {
		t.Fatalf("Start() after Stop err = %v", err)
	}
	if got := sm.Info().SessionID; got != "second" {
		t.Fatalf("Info().SessionID = %q", got)
	}
}
