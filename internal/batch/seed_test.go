package batch

import "testing"

func TestUnitSeed_Deterministic(t *testing.T) {
	a := UnitSeed("click-icon", 42)
	b := UnitSeed("click-icon", 42)
	if a != b {
		t.Errorf("UnitSeed not deterministic: %d vs %d", a, b)
	}
}

func TestUnitSeed_DistinguishesTaskAndIndex(t *testing.T) {
	seen := map[int64]string{}
	for _, task := range []string{"click-icon", "grounding", "wait-loading"} {
		for i := 0; i < 100; i++ {
			s := UnitSeed(task, i)
			if prev, ok := seen[s]; ok {
				t.Fatalf("seed collision between %s:%d and %s", task, i, prev)
			}
			seen[s] = task
		}
	}
}
