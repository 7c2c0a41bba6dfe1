package numeric

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "10", want: "10", ok: true},
		{in: " 2.5 ", want: "2.5", ok: true},
		{in: "-3", want: "-3", ok: true},
		{in: "1,234", want: "1234", ok: true},
		{in: "1,234.50", want: "1234.5", ok: true},
		{in: "1e3", want: "1000", ok: true},
		{in: "", ok: false},
		{in: "   ", ok: false},
		{in: "abc", ok: false},
		{in: "12abc", ok: false},
		{in: ",", ok: false},
		{in: "-", ok: false},
		{in: ".", ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, ok := Parse(tc.in)
			if ok != tc.ok {
				t.Fatalf("Parse(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got.String() != tc.want {
				t.Fatalf("Parse(%q)=%s, want %s", tc.in, got.String(), tc.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	if c, ok := Compare("2", "10"); !ok || c >= 0 {
		t.Fatalf("Compare(2,10)=(%d,%v), want negative,true", c, ok)
	}
	if c, ok := Compare("10.0", "10"); !ok || c != 0 {
		t.Fatalf("Compare(10.0,10)=(%d,%v), want 0,true", c, ok)
	}
	if _, ok := Compare("x", "10"); ok {
		t.Fatalf("Compare(x,10) should not be ok")
	}
}
