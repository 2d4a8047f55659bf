package record

import "testing"

func TestNormalizeContext(t *testing.T) {
	t.Run("keeps scalars and nested maps", func(t *testing.T) {
		in := map[string]any{
			"str":   "value",
			"int":   42,
			"float": 3.14,
			"bool":  true,
			"nil":   nil,
			"nested": map[string]any{
				"inner": "x",
				"n":     int64(7),
			},
		}
		out := NormalizeContext(in)
		if len(out) != len(in) {
			t.Fatalf("NormalizeContext() kept %d keys, want %d", len(out), len(in))
		}
		nested, ok := out["nested"].(map[string]any)
		if !ok {
			t.Fatalf("NormalizeContext() nested type = %T, want map[string]any", out["nested"])
		}
		if nested["inner"] != "x" {
			t.Errorf("nested inner = %v, want x", nested["inner"])
		}
	})

	t.Run("drops non-serializable values", func(t *testing.T) {
		in := map[string]any{
			"fn":    func() {},
			"ch":    make(chan int),
			"slice": []string{"a", "b"},
			"keep":  "yes",
		}
		out := NormalizeContext(in)
		if len(out) != 1 {
			t.Fatalf("NormalizeContext() kept %d keys, want 1", len(out))
		}
		if out["keep"] != "yes" {
			t.Errorf("keep = %v, want yes", out["keep"])
		}
	})

	t.Run("drops non-serializable nested values but keeps map", func(t *testing.T) {
		in := map[string]any{
			"nested": map[string]any{
				"fn":   func() {},
				"keep": 1,
			},
		}
		out := NormalizeContext(in)
		nested := out["nested"].(map[string]any)
		if len(nested) != 1 || nested["keep"] != 1 {
			t.Errorf("nested = %v, want only keep=1", nested)
		}
	})

	t.Run("attachments key passes through verbatim", func(t *testing.T) {
		refs := []any{map[string]any{"id": "abc"}}
		in := map[string]any{AttachmentsKey: refs}
		out := NormalizeContext(in)
		if _, ok := out[AttachmentsKey]; !ok {
			t.Fatal("attachments key was dropped")
		}
	})
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := NormalizeContext(map[string]any{"order_number": "A-1", "total": 100, "nested": map[string]any{"x": 1, "y": 2}})
	b := NormalizeContext(map[string]any{"nested": map[string]any{"y": 2, "x": 1}, "total": 100, "order_number": "A-1"})

	fpA := Fingerprint("order_receipt", "buyer@example.com", a)
	fpB := Fingerprint("order_receipt", "buyer@example.com", b)
	if fpA != fpB {
		t.Errorf("fingerprints differ for identical contexts: %s vs %s", fpA, fpB)
	}
}

func TestFingerprint_SensitiveToInputs(t *testing.T) {
	ctx := NormalizeContext(map[string]any{"k": "v"})
	base := Fingerprint("order_receipt", "buyer@example.com", ctx)

	if got := Fingerprint("order_refund", "buyer@example.com", ctx); got == base {
		t.Error("fingerprint unchanged when template changed")
	}
	if got := Fingerprint("order_receipt", "other@example.com", ctx); got == base {
		t.Error("fingerprint unchanged when recipient changed")
	}
	other := NormalizeContext(map[string]any{"k": "different"})
	if got := Fingerprint("order_receipt", "buyer@example.com", other); got == base {
		t.Error("fingerprint unchanged when context changed")
	}
}

func TestFingerprint_DroppedValuesDoNotAffectHash(t *testing.T) {
	plain := NormalizeContext(map[string]any{"k": "v"})
	withJunk := NormalizeContext(map[string]any{"k": "v", "fn": func() {}})

	if Fingerprint("t", "r", plain) != Fingerprint("t", "r", withJunk) {
		t.Error("dropped non-serializable value changed the fingerprint")
	}
}
