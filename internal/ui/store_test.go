package ui

import "testing"

func TestStore_SetStateShallowMerges(t *testing.T) {
	t.Parallel()
	s := NewStore(State{IsOpen: false, IsVoiceMode: false, Config: Config{Position: "bottom-right"}})

	s.SetState(Patch{IsOpen: boolPtr(true)})
	got := s.State()
	if !got.IsOpen {
		t.Fatal("IsOpen not set")
	}
	if got.Config.Position != "bottom-right" {
		t.Fatalf("Config = %+v, want untouched by an IsOpen-only patch", got.Config)
	}

	newConfig := Config{Position: "bottom-left", AccentColor: "#123456"}
	s.SetState(Patch{Config: &newConfig})
	got = s.State()
	if got.Config != newConfig {
		t.Fatalf("Config = %+v, want %+v", got.Config, newConfig)
	}
	if !got.IsOpen {
		t.Fatal("IsOpen should remain true after a Config-only patch")
	}
}

func TestStore_SubscribeReceivesUpdatesAndUnsubscribeStopsThem(t *testing.T) {
	t.Parallel()
	s := NewStore(State{})
	var notifications []State
	unsub := s.Subscribe(func(st State) { notifications = append(notifications, st) })

	s.SetState(Patch{IsOpen: boolPtr(true)})
	if len(notifications) != 1 || !notifications[0].IsOpen {
		t.Fatalf("notifications = %+v", notifications)
	}

	unsub()
	s.SetState(Patch{IsOpen: boolPtr(false)})
	if len(notifications) != 1 {
		t.Fatalf("notifications after unsubscribe = %+v, want unchanged", notifications)
	}
}

func TestStore_MultipleSubscribersAllNotified(t *testing.T) {
	t.Parallel()
	s := NewStore(State{})
	var a, b int
	s.Subscribe(func(State) { a++ })
	s.Subscribe(func(State) { b++ })

	s.SetState(Patch{IsVoiceMode: boolPtr(true)})

	if a != 1 || b != 1 {
		t.Fatalf("a=%d b=%d, want 1/1", a, b)
	}
}
