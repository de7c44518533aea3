package compute

import "testing"

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		marks []bool
		want  []int32
		total int
	}{
		{"empty", nil, nil, 0},
		{"none", []bool{false, false, false}, []int32{0, 0, 0}, 0},
		{"all", []bool{true, true, true, true}, []int32{0, 1, 2, 3}, 4},
		{"mixed", []bool{true, false, true, true, false, true}, []int32{0, 1, 1, 2, 3, 3}, 4},
	}

	for _, grain := range []int{1, 2, 1024} {
		d := New(4).WithGrain(grain)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				out := make([]int32, len(tt.marks))
				total := d.Scan(len(tt.marks), func(i int) bool { return tt.marks[i] }, out)
				if total != tt.total {
					t.Errorf("grain %d: total = %d, want %d", grain, total, tt.total)
				}
				for i := range tt.want {
					if out[i] != tt.want[i] {
						t.Errorf("grain %d: out[%d] = %d, want %d", grain, i, out[i], tt.want[i])
					}
				}
			})
		}
	}
}

func TestCollectMatchesSerial(t *testing.T) {
	n := 10007
	pred := func(i int) bool { return i%7 == 3 || i%11 == 0 }

	var want []int32
	for i := 0; i < n; i++ {
		if pred(i) {
			want = append(want, int32(i))
		}
	}

	got := New(8).WithGrain(100).Collect(n, pred)
	if len(got) != len(want) {
		t.Fatalf("Collect returned %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Collect()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestCollectEmpty(t *testing.T) {
	if got := New(2).Collect(50, func(int) bool { return false }); got != nil {
		t.Errorf("Collect() = %v, want nil", got)
	}
}

func TestPrefixSum(t *testing.T) {
	weights := []int32{3, 0, 2, 3, 1, 0, 0, 3}
	want := []int32{0, 3, 3, 5, 8, 9, 9, 9}

	for _, grain := range []int{1, 3, 100} {
		out := make([]int32, len(weights))
		total := New(4).WithGrain(grain).PrefixSum(len(weights), func(i int) int32 { return weights[i] }, out)
		if total != 12 {
			t.Errorf("grain %d: total = %d, want 12", grain, total)
		}
		for i := range want {
			if out[i] != want[i] {
				t.Errorf("grain %d: out[%d] = %d, want %d", grain, i, out[i], want[i])
			}
		}
	}
}
