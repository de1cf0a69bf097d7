package state

import "testing"

func TestManagerStateLifecycle(t *testing.T) {
	m := NewMemoryManager()
	const userID = int64(7)

	if m.InProgress(userID) {
		t.Fatal("fresh manager should have no active state")
	}

	m.SetState(userID, State("step_one"))
	if !m.InProgress(userID) {
		t.Fatal("expected state to be in progress")
	}
	if got := m.GetState(userID); got != State("step_one") {
		t.Fatalf("GetState = %s, expected step_one", got)
	}

	m.Clear(userID)
	if m.InProgress(userID) {
		t.Fatal("expected state cleared")
	}
}

func TestManagerTempData(t *testing.T) {
	m := NewMemoryManager()
	const userID = int64(7)

	m.SetTemp(userID, "target", int64(42))
	val, ok := m.GetTempInt64(userID, "target")
	if !ok || val != 42 {
		t.Fatalf("GetTempInt64 = %d,%v, expected 42,true", val, ok)
	}

	m.ClearTemp(userID, "target")
	if _, ok := m.GetTemp(userID, "target"); ok {
		t.Fatal("expected temp key removed")
	}
}

func TestManagerClearDropsTempData(t *testing.T) {
	m := NewMemoryManager()
	const userID = int64(7)

	m.SetState(userID, State("step_one"))
	m.SetTemp(userID, "target", int64(42))
	m.Clear(userID)

	if _, ok := m.GetTempInt64(userID, "target"); ok {
		t.Fatal("Clear should drop temp data with the state")
	}
}

func TestManagerIsolatesUsers(t *testing.T) {
	m := NewMemoryManager()

	m.SetState(1, State("step_one"))
	if m.InProgress(2) {
		t.Fatal("state must be scoped per user")
	}
}
