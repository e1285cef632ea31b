package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "iotmonitor.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKV_SetGetDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if _, err := s.GetValue("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("GetValue(missing) err=%v, want ErrKeyNotFound", err)
	}
	if err := s.SetValue("k", "v1"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := s.SetValue("k", "v2"); err != nil {
		t.Fatalf("SetValue overwrite failed: %v", err)
	}
	got, err := s.GetValue("k")
	if err != nil || got != "v2" {
		t.Fatalf("GetValue=%q,%v want v2,nil", got, err)
	}
	if err := s.DeleteValue("k"); err != nil {
		t.Fatalf("DeleteValue failed: %v", err)
	}
	if _, err := s.GetValue("k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("after delete err=%v, want ErrKeyNotFound", err)
	}
}

func TestRunLog_Lifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	last, err := s.LastRunLog()
	if err != nil || last != nil {
		t.Fatalf("LastRunLog on empty db=%v,%v want nil,nil", last, err)
	}

	id, err := s.CreateRunLog("period-1", 12)
	if err != nil {
		t.Fatalf("CreateRunLog failed: %v", err)
	}
	if err := s.FinishRunLog(id, 5, 7, 1, "completed"); err != nil {
		t.Fatalf("FinishRunLog failed: %v", err)
	}

	last, err = s.LastRunLog()
	if err != nil {
		t.Fatalf("LastRunLog failed: %v", err)
	}
	if last.ID != id || last.PeriodID != "period-1" || last.Total != 12 {
		t.Fatalf("unexpected run log: %+v", last)
	}
	if last.CacheHits != 5 || last.Computed != 7 || last.Failed != 1 || last.Status != "completed" {
		t.Fatalf("unexpected counters: %+v", last)
	}
	if last.CompletedAt == "" {
		t.Fatalf("CompletedAt should be set")
	}
}
