package fixture

import (
	"context"
	"testing"
)

var rfc4493Key = [16]byte{
	0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
	0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c,
}

func TestRunReportsPassAndFail(t *testing.T) {
	vectors := []Vector{
		{
			Name:  "empty-ok",
			Key:   rfc4493Key,
			Param: 1,
			Expect: [16]byte{
				0xbb, 0x1d, 0x69, 0x29, 0xe9, 0x59, 0x37, 0x28,
				0x7f, 0xa3, 0x7d, 0x12, 0x9b, 0x75, 0x67, 0x46,
			},
		},
		{
			Name:   "empty-wrong",
			Key:    rfc4493Key,
			Param:  1,
			Expect: [16]byte{0xFF},
		},
	}
	results, err := Run(context.Background(), vectors)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if !byName["empty-ok"].Pass {
		t.Error("empty-ok should pass")
	}
	if byName["empty-wrong"].Pass {
		t.Error("empty-wrong should fail")
	}
	passed, failed := Summary(results)
	if passed != 1 || failed != 1 {
		t.Errorf("Summary = (%d, %d), want (1, 1)", passed, failed)
	}
}

func TestRunReportsPerVectorError(t *testing.T) {
	vectors := []Vector{
		{Name: "bad-param", Key: rfc4493Key, Param: 9},
	}
	results, err := Run(context.Background(), vectors)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Err == nil {
		t.Error("expected a per-vector error for an invalid param")
	}
	_, failed := Summary(results)
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}
