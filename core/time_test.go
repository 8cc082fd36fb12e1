package core

import "testing"

func TestMicrosFromSecs(t *testing.T) {
	m := MicrosFromSecs(1)
	if m.Raw() != 1_000_000<<fracBits {
		t.Fatalf("got %d", m.Raw())
	}
}

func TestMicrosFromMillis(t *testing.T) {
	m := MicrosFromMillis(500)
	if m.Raw() != 500_000<<fracBits {
		t.Fatalf("got %d", m.Raw())
	}
}

func TestMicrosToTicks(t *testing.T) {
	cases := []struct {
		m    Micros
		hz   uint32
		want uint64
	}{
		{MicrosFromSecs(1), 60, 60},
		{MicrosFromSecs(30), 60, 1800},
		{MicrosFromMillis(500), 60, 30},
	}
	for _, c := range cases {
		if got := c.m.ToTicks(c.hz); got != c.want {
			t.Errorf("ToTicks(%d) = %d, want %d", c.hz, got, c.want)
		}
	}
}

func TestSpeedToTickInterval(t *testing.T) {
	cases := []struct {
		s    Speed
		hz   uint32
		want uint64
	}{
		{SpeedFromCellsPerSec(2), 60, 30},
		{SpeedFromCellsPerSec(1), 60, 60},
		{SpeedFromCellsPerSecFrac(1, 2), 60, 120},
	}
	for _, c := range cases {
		if got := c.s.ToTickInterval(c.hz); got != c.want {
			t.Errorf("ToTickInterval(%d) = %d, want %d", c.hz, got, c.want)
		}
	}
}

func TestSpeedZero(t *testing.T) {
	s := SpeedFromCellsPerSec(0)
	if got := s.ToTickInterval(60); got != ^uint64(0) {
		t.Fatalf("got %d", got)
	}
}

func TestMicrosArithmetic(t *testing.T) {
	a := MicrosFromSecs(5)
	b := MicrosFromSecs(3)

	if got := a.Add(b).ToTicks(60); got != 480 {
		t.Errorf("a+b ticks = %d, want 480", got)
	}
	if got := a.Sub(b).ToTicks(60); got != 120 {
		t.Errorf("a-b ticks = %d, want 120", got)
	}
	if got := a.Mul(2).ToTicks(60); got != 600 {
		t.Errorf("a*2 ticks = %d, want 600", got)
	}
	if got := a.Div(5).ToTicks(60); got != 60 {
		t.Errorf("a/5 ticks = %d, want 60", got)
	}
}

func TestFixedPointRoundtrip(t *testing.T) {
	for s := 0; s <= 4000; s += 137 {
		for _, r := range []uint32{1, 20, 60, 1000} {
			m := MicrosFromSecs(uint32(s))
			want := uint64(s) * uint64(r)
			if got := m.ToTicks(r); got != want {
				t.Fatalf("to_ticks(from_secs(%d), %d) = %d, want %d", s, r, got, want)
			}
		}
	}
}
