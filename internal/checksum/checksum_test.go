package checksum

import "testing"

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("select 1;"))
	b := SumString("select 1;")
	if a != b {
		t.Errorf("Sum and SumString disagree: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64", len(a))
	}
	if Sum([]byte("select 2;")) == a {
		t.Error("different content must not collide")
	}
}

func TestShort(t *testing.T) {
	full := Sum([]byte("x"))
	short := Short([]byte("x"))
	if len(short) != 12 || full[:12] != short {
		t.Errorf("Short = %q, full = %q", short, full)
	}
}
