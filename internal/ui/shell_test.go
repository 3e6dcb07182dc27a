package ui

import (
	"testing"
	"time"
)

func TestShell_PointerEnterOpensImmediately(t *testing.T) {
	t.Parallel()
	store := NewStore(State{})
	shell := NewShell(store)

	shell.PointerEnter()
	if !store.State().IsOpen {
		t.Fatal("IsOpen should be true immediately after PointerEnter")
	}
}

func TestShell_PointerLeaveClosesAfterDebounce(t *testing.T) {
	t.Parallel()
	store := NewStore(State{IsOpen: true})
	shell := NewShell(store)

	shell.PointerLeave()
	if !store.State().IsOpen {
		t.Fatal("IsOpen should remain true immediately after PointerLeave (debounced)")
	}

	time.Sleep(closeDebounce + 100*time.Millisecond)
	if store.State().IsOpen {
		t.Fatal("IsOpen should be false once the debounce elapses")
	}
}

func TestShell_PointerEnterCancelsPendingClose(t *testing.T) {
	t.Parallel()
	store := NewStore(State{IsOpen: true})
	shell := NewShell(store)

	shell.PointerLeave()
	time.Sleep(50 * time.Millisecond)
	shell.PointerEnter()
	time.Sleep(closeDebounce + 100*time.Millisecond)

	if !store.State().IsOpen {
		t.Fatal("IsOpen should remain true; PointerEnter must cancel the pending close")
	}
}

func TestShell_VoiceModeSuppressesClose(t *testing.T) {
	t.Parallel()
	store := NewStore(State{IsOpen: true})
	shell := NewShell(store)

	shell.SetVoiceModeActive(true)
	shell.PointerLeave()
	time.Sleep(closeDebounce + 100*time.Millisecond)

	if !store.State().IsOpen {
		t.Fatal("IsOpen should remain true while voice mode suppresses the close debounce")
	}
	if !store.State().IsVoiceMode {
		t.Fatal("IsVoiceMode should be reflected in the store")
	}
}

func TestShell_MessageHoverSuppressesClose(t *testing.T) {
	t.Parallel()
	store := NewStore(State{IsOpen: true})
	shell := NewShell(store)

	shell.MessageHoverChanged(true)
	shell.PointerLeave()
	time.Sleep(closeDebounce + 100*time.Millisecond)

	if !store.State().IsOpen {
		t.Fatal("IsOpen should remain true while a message bubble is hovered")
	}
}

func TestShell_MessageHoverEndingAllowsSubsequentClose(t *testing.T) {
	t.Parallel()
	store := NewStore(State{IsOpen: true})
	shell := NewShell(store)

	shell.MessageHoverChanged(true)
	shell.PointerLeave()
	shell.MessageHoverChanged(false)
	shell.PointerLeave() // re-trigger now that suppression has lifted

	time.Sleep(closeDebounce + 100*time.Millisecond)
	if store.State().IsOpen {
		t.Fatal("IsOpen should close once hover suppression lifts and PointerLeave re-fires")
	}
}

func TestShell_OutsideClickClosesImmediatelyBypassingDebounce(t *testing.T) {
	t.Parallel()
	store := NewStore(State{IsOpen: true})
	shell := NewShell(store)
	shell.SetVoiceModeActive(true) // would otherwise suppress any close

	shell.OutsideClick()
	if store.State().IsOpen {
		t.Fatal("OutsideClick should close immediately regardless of suppression")
	}
}
