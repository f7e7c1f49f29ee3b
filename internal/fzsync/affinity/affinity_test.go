package affinity

import "testing"

func TestDecideForcesYieldWhenParallelismNotGuaranteed(t *testing.T) {
	p := Decide(true)

	if !ParallelismGuaranteed() && !p.YieldInWait {
		t.Error("YieldInWait should be true whenever parallelism is not guaranteed")
	}
}

func TestDecideNeverPinsWithoutRequest(t *testing.T) {
	p := Decide(false)

	if p.Pinned {
		t.Error("Pinned = true despite requestPin=false")
	}
}

func TestUnpinIsAlwaysSafe(t *testing.T) {
	// Must not panic even when Pin was never called.
	Unpin()
}
