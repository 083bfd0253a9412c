package volume

import (
	"strings"
	"testing"
)

func makeAtlas(t *testing.T, size Point3d, labels []uint64) *LabelVolume {
	t.Helper()
	v, err := NewLabelVolumeFromData(size, labels)
	if err != nil {
		t.Fatalf("NewLabelVolumeFromData: %v", err)
	}
	return v
}

func TestTallyAtlases(t *testing.T) {
	size := Point3d{2, 1, 1}
	a0 := makeAtlas(t, size, []uint64{1, 2})
	a1 := makeAtlas(t, size, []uint64{1, 3})
	a2 := makeAtlas(t, size, []uint64{4, 3})

	votes, err := TallyAtlases([]*LabelVolume{a0, a1, a2})
	if err != nil {
		t.Fatalf("TallyAtlases: %v", err)
	}
	if votes.NumAtlases() != 3 {
		t.Errorf("NumAtlases got %d, expected 3", votes.NumAtlases())
	}

	labels, counts := votes.TallyAt(Point3d{0, 0, 0})
	if len(labels) != 2 || labels[0] != 1 || labels[1] != 4 {
		t.Errorf("TallyAt labels got %v", labels)
	}
	if counts[0] != 2 || counts[1] != 1 {
		t.Errorf("TallyAt counts got %v", counts)
	}

	if got := votes.Majority(Point3d{0, 0, 0}); got != 1 {
		t.Errorf("Majority got %d, expected 1", got)
	}
	if got := votes.Majority(Point3d{1, 0, 0}); got != 3 {
		t.Errorf("Majority got %d, expected 3", got)
	}

	if _, err := TallyAtlases(nil); err == nil {
		t.Errorf("TallyAtlases should reject empty atlas list")
	}

	mismatched := makeAtlas(t, Point3d{1, 2, 1}, []uint64{0, 0})
	if _, err := TallyAtlases([]*LabelVolume{a0, mismatched}); err == nil {
		t.Errorf("TallyAtlases should reject mismatched atlas sizes")
	}
}

func TestMajorityTieBreak(t *testing.T) {
	size := Point3d{1, 1, 1}
	a0 := makeAtlas(t, size, []uint64{7})
	a1 := makeAtlas(t, size, []uint64{2})
	votes, err := TallyAtlases([]*LabelVolume{a0, a1})
	if err != nil {
		t.Fatalf("TallyAtlases: %v", err)
	}

	// Both labels have one vote; the tie must go to the smaller label.
	if got := votes.Majority(Point3d{0, 0, 0}); got != 2 {
		t.Errorf("tied Majority got %d, expected 2", got)
	}
}

func TestSetVotes(t *testing.T) {
	votes, err := NewVoteVolume(Point3d{2, 2, 1}, 4)
	if err != nil {
		t.Fatalf("NewVoteVolume: %v", err)
	}

	p := Point3d{1, 0, 0}
	if err := votes.SetVotes(p, map[uint64]int{5: 3, 2: 1}); err != nil {
		t.Fatalf("SetVotes: %v", err)
	}
	rec := votes.VotesAt(p)
	expected := []uint64{2, 5, 5, 5}
	for i := range expected {
		if rec[i] != expected[i] {
			t.Fatalf("record got %v, expected %v", rec, expected)
		}
	}

	err = votes.SetVotes(p, map[uint64]int{5: 2, 2: 1})
	if err == nil {
		t.Fatalf("SetVotes should reject counts that do not sum to the atlas count")
	}
	if !strings.Contains(err.Error(), p.String()) {
		t.Errorf("vote sum error %q should name voxel %s", err, p)
	}

	if err := votes.SetVotes(p, map[uint64]int{5: 5, 2: -1}); err == nil {
		t.Errorf("SetVotes should reject negative counts")
	}
	if err := votes.SetVotes(Point3d{5, 5, 5}, map[uint64]int{5: 4}); err == nil {
		t.Errorf("SetVotes should reject out-of-bounds voxel")
	}
}

func TestForegroundExtents(t *testing.T) {
	size := Point3d{5, 5, 5}
	labels := make([]uint64, size.Prod())
	atlas := makeAtlas(t, size, labels)
	votes, err := TallyAtlases([]*LabelVolume{atlas})
	if err != nil {
		t.Fatalf("TallyAtlases: %v", err)
	}
	if !votes.ForegroundExtents().Empty() {
		t.Errorf("all-background volume should have empty foreground extents")
	}

	atlas.SetLabel(Point3d{1, 2, 3}, 9)
	atlas.SetLabel(Point3d{3, 2, 1}, 9)
	votes, err = TallyAtlases([]*LabelVolume{atlas})
	if err != nil {
		t.Fatalf("TallyAtlases: %v", err)
	}
	sub := votes.ForegroundExtents().Subvolume()
	if sub == nil {
		t.Fatalf("foreground extents should be non-empty")
	}
	if sub.StartPoint() != (Point3d{1, 2, 1}) || sub.EndPoint() != (Point3d{3, 2, 3}) {
		t.Errorf("foreground extents got %s to %s", sub.StartPoint(), sub.EndPoint())
	}
}
