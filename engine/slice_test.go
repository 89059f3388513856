package engine

import "testing"

// TestPartitionCoversEveryIndexExactlyOnce checks spec property 1: for
// every particle index, exactly one slice contains it.
func TestPartitionCoversEveryIndexExactlyOnce(t *testing.T) {
	cases := []struct {
		n, threads int
	}{
		{100, 1}, {100, 3}, {100, 4}, {101, 4}, {7, 7}, {1000, 6},
	}

	for _, c := range cases {
		slices, err := Partition(c.n, c.threads)
		if err != nil {
			t.Fatalf("Partition(%d, %d): %v", c.n, c.threads, err)
		}
		if len(slices) != c.threads {
			t.Fatalf("Partition(%d, %d): got %d slices, want %d", c.n, c.threads, len(slices), c.threads)
		}

		covered := make([]int, c.n)
		for _, s := range slices {
			for i := s.Offset; i < s.Offset+s.Len; i++ {
				covered[i]++
			}
		}
		for i, count := range covered {
			if count != 1 {
				t.Errorf("Partition(%d, %d): index %d covered %d times, want 1", c.n, c.threads, i, count)
			}
		}
	}
}

func TestPartitionRejectsInvalidInput(t *testing.T) {
	if _, err := Partition(10, 0); err == nil {
		t.Error("expected error for threads == 0")
	}
	if _, err := Partition(2, 5); err == nil {
		t.Error("expected error when threads exceeds particles")
	}
}
