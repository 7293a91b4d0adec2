package platform

import "testing"

func TestKeyFor(t *testing.T) {
	cases := []struct {
		goarch string
		want   string
	}{
		{"amd64", "linux-x64"},
		{"arm64", "linux-arm64"},
		{"386", "linux-x64"},
		{"riscv64", "linux-x64"},
	}
	for _, tc := range cases {
		if got := KeyFor(tc.goarch); got != tc.want {
			t.Fatalf("KeyFor(%q) = %q, want %q", tc.goarch, got, tc.want)
		}
	}
}

func TestSupportedOS(t *testing.T) {
	if !SupportedOS("linux") {
		t.Fatalf("linux should be supported")
	}
	if SupportedOS("darwin") || SupportedOS("windows") {
		t.Fatalf("non-linux systems should not be supported")
	}
}
