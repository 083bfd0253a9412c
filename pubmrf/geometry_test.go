package pubmrf

import (
	"sync"
	"testing"
)

func TestSubvolume(t *testing.T) {
	sub := NewSubvolume(Point3d{10, 20, 30}, Point3d{5, 5, 10})
	if sub.NumVoxels() != 250 {
		t.Errorf("NumVoxels got %d, expected 250", sub.NumVoxels())
	}
	if sub.EndPoint() != (Point3d{14, 24, 39}) {
		t.Errorf("EndPoint got %s", sub.EndPoint())
	}
	if !sub.Contains(Point3d{10, 24, 35}) {
		t.Errorf("Contains should include %s", Point3d{10, 24, 35})
	}
	if sub.Contains(Point3d{15, 20, 30}) {
		t.Errorf("Contains should exclude %s", Point3d{15, 20, 30})
	}

	bounds := NewSubvolume(Point3d{0, 0, 0}, Point3d{12, 100, 100})
	clipped := sub.Clip(bounds)
	if clipped == nil {
		t.Fatalf("Clip returned nil for overlapping boxes")
	}
	if clipped.StartPoint() != sub.StartPoint() {
		t.Errorf("Clip start got %s", clipped.StartPoint())
	}
	if clipped.Size() != (Point3d{2, 5, 10}) {
		t.Errorf("Clip size got %s", clipped.Size())
	}

	if sub.Clip(NewSubvolume(Point3d{100, 100, 100}, Point3d{5, 5, 5})) != nil {
		t.Errorf("Clip of disjoint boxes should be nil")
	}
}

func TestExtents(t *testing.T) {
	ext := NewExtents()
	if !ext.Empty() {
		t.Fatalf("new extents should be empty")
	}
	if ext.Subvolume() != nil {
		t.Fatalf("empty extents should have nil subvolume")
	}

	var wg sync.WaitGroup
	for i := int32(0); i < 10; i++ {
		wg.Add(1)
		go func(i int32) {
			defer wg.Done()
			ext.AdjustPoints(Point3d{i, i, i}, Point3d{i + 1, i + 1, i + 1})
		}(i)
	}
	wg.Wait()

	sub := ext.Subvolume()
	if sub == nil {
		t.Fatalf("extents should be non-empty after adjustments")
	}
	if sub.StartPoint() != (Point3d{0, 0, 0}) {
		t.Errorf("extents start got %s", sub.StartPoint())
	}
	if sub.EndPoint() != (Point3d{10, 10, 10}) {
		t.Errorf("extents end got %s", sub.EndPoint())
	}
}
