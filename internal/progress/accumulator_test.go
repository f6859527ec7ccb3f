package progress

import (
	"testing"

	"habit-planner/internal/model"
)

func event(id string, magnitude int, status model.SessionStatus) model.ProgressEvent {
	return model.ProgressEvent{ID: id, Magnitude: magnitude, Status: status}
}

func TestAccumulateYesNo(t *testing.T) {
	goal := Goal{Kind: model.KindYesNo, Value: 8}
	recorded := []model.ProgressEvent{event("a", 5, model.SessionCompleted)}

	res := Accumulate(goal, recorded, event("b", 3, model.SessionCompleted))
	if res.Total != 8 || !res.Complete {
		t.Fatalf("5+3 = %+v, want total 8 complete", res)
	}

	res = Accumulate(goal, recorded, event("b", 2, model.SessionCompleted))
	if res.Total != 7 || res.Complete {
		t.Fatalf("5+2 = %+v, want total 7 open", res)
	}
	if res.Remaining != 1 {
		t.Fatalf("remaining = %d, want 1", res.Remaining)
	}
	if RemainingSnapshot(goal, res) != nil {
		t.Fatal("YES_NO tasks carry no remaining snapshot")
	}
}

func TestAccumulateTimeBasedClampsRemaining(t *testing.T) {
	goal := Goal{Kind: model.KindTimeBased, Value: 30}
	recorded := []model.ProgressEvent{event("a", 10, model.SessionCompleted)}

	res := Accumulate(goal, recorded, event("b", 25, model.SessionCompleted))
	if !res.Complete || res.Total != 35 {
		t.Fatalf("result = %+v, want complete with total 35", res)
	}
	snap := RemainingSnapshot(goal, res)
	if snap == nil || *snap != 0 {
		t.Fatalf("remaining snapshot = %v, want 0", snap)
	}
}

func TestAccumulateReplacesEventWithSameID(t *testing.T) {
	goal := Goal{Kind: model.KindYesNo, Value: 10}
	recorded := []model.ProgressEvent{
		event("a", 4, model.SessionCompleted),
		event("b", 3, model.SessionCompleted),
	}

	res := Accumulate(goal, recorded, event("b", 3, model.SessionCompleted))
	if res.Total != 7 {
		t.Fatalf("replay total = %d, want 7", res.Total)
	}

	res = Accumulate(goal, recorded, event("b", 6, model.SessionCompleted))
	if res.Total != 10 || !res.Complete {
		t.Fatalf("edited total = %+v, want 10 complete", res)
	}
}

func TestCancelledEventsDoNotCount(t *testing.T) {
	goal := Goal{Kind: model.KindTimeBased, Value: 20}
	recorded := []model.ProgressEvent{
		event("a", 15, model.SessionCancelled),
		event("b", 5, model.SessionInProgress),
	}

	res := Accumulate(goal, recorded, event("c", 10, model.SessionCancelled))
	if res.Total != 5 || res.Complete {
		t.Fatalf("result = %+v, want total 5", res)
	}
	if res.Remaining != 15 {
		t.Fatalf("remaining = %d, want 15", res.Remaining)
	}

	// cancelling an event that used to count removes it from the total
	res = Accumulate(goal, recorded, event("b", 5, model.SessionCancelled))
	if res.Total != 0 {
		t.Fatalf("total after cancel = %d, want 0", res.Total)
	}
}

func TestRecompute(t *testing.T) {
	goal := Goal{Kind: model.KindYesNo, Value: 2}
	res := Recompute(goal, []model.ProgressEvent{
		event("a", 1, model.SessionCompleted),
		event("b", 1, model.SessionCompleted),
	})
	if !res.Complete || res.Total != 2 {
		t.Fatalf("recompute = %+v", res)
	}
	if res := Recompute(goal, nil); res.Total != 0 || res.Complete {
		t.Fatalf("empty recompute = %+v", res)
	}
}
