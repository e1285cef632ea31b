package parser

import "testing"

func TestParseOptionalFloat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 3.5 ", 3.5, true},
		{"7,25", 7.25, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"12 m³", 12, true},
		{"-4", -4, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseOptionalFloat(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseOptionalFloat(%q)=%v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	if got := NormalizeColumnName("  Observação  Geral\n"); got != "observacaogeral" {
		t.Fatalf("NormalizeColumnName=%q, want observacaogeral", got)
	}
	if got := NormalizeLabel("LEITURA   ANTERIOR (m³)"); got != "leitura anterior (m³)" {
		t.Fatalf("NormalizeLabel=%q", got)
	}
}
