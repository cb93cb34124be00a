package upload

import "testing"

func TestTracker(t *testing.T) {
	t.Run("weights are even", func(t *testing.T) {
		tr := NewTracker("artwork", "song-0", "song-1", "song-2")
		if w := tr.Weight(); w != 0.25 {
			t.Errorf("expected 0.25, got %v", w)
		}

		if got := tr.Update("artwork", 100); got != 25 {
			t.Errorf("expected 25, got %v", got)
		}
		if got := tr.Update("song-0", 50); got != 37.5 {
			t.Errorf("expected 37.5, got %v", got)
		}
	})

	t.Run("never decreases", func(t *testing.T) {
		tr := NewTracker("a", "b")
		tr.Update("a", 80)
		if got := tr.Update("a", 10); got != 40 {
			t.Errorf("expected 40 after regression, got %v", got)
		}
		if got := tr.Update("a", -5); got != 40 {
			t.Errorf("expected 40 after negative value, got %v", got)
		}
	})

	t.Run("clamps and completes to exactly 100", func(t *testing.T) {
		tr := NewTracker("a", "b", "c")
		tr.Update("a", 250)
		tr.Complete("b")
		if got := tr.Complete("c"); got != 100 {
			t.Errorf("expected 100, got %v", got)
		}
	})

	t.Run("ignores unknown ids", func(t *testing.T) {
		tr := NewTracker("a")
		if got := tr.Update("zzz", 100); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("snapshot keeps asset order", func(t *testing.T) {
		tr := NewTracker("artwork", "song-0", "artwork")
		tr.Update("song-0", 30)

		snap := tr.Snapshot()
		if len(snap) != 2 || snap[0].ID != "artwork" || snap[1] != (AssetProgress{ID: "song-0", Percent: 30}) {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})
}
