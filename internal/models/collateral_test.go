package models

import "testing"

func TestLockAmountForBill(t *testing.T) {
	tests := []struct {
		amount   int64
		expected int64
	}{
		{100, 10},   // floor
		{900, 10},   // still floor
		{1000, 10},  // exactly floor
		{5000, 50},
		{5200, 52},
		{100_000, 1000},
	}
	for _, tt := range tests {
		if got := LockAmountForBill(tt.amount); got != tt.expected {
			t.Errorf("LockAmountForBill(%d) = %d, want %d", tt.amount, got, tt.expected)
		}
	}
}

func TestAvailable(t *testing.T) {
	e := CollateralEntry{Points: 100, LockedPoints: 30}
	if got := e.Available(); got != 70 {
		t.Errorf("Available() = %d, want 70", got)
	}
}

func TestStakeReturn(t *testing.T) {
	if got := StakeReturn(100); got != 110 {
		t.Errorf("StakeReturn(100) = %d, want 110", got)
	}
	if got := StakeReturn(0); got != 0 {
		t.Errorf("StakeReturn(0) = %d, want 0", got)
	}
}
