package model

import (
	"errors"
	"testing"
)

func TestParseReservationStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    ReservationStatus
		wantErr bool
	}{
		{in: "Pending", want: ReservationPending},
		{in: "confirmed", want: ReservationConfirmed},
		{in: "Checked-in", want: ReservationCheckedIn},
		{in: "CheckedIn", want: ReservationCheckedIn},
		{in: "Checked-out", want: ReservationCheckedOut},
		{in: "CheckedOut", want: ReservationCheckedOut},
		{in: " Cancelled ", want: ReservationCancelled},
		{in: "Paid", want: ReservationPaid},
		{in: "Booked", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReservationStatus(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Errorf("ParseReservationStatus(%q) error = %v, want ErrInvalidStatus", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReservationStatus(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseReservationStatus(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReservationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from ReservationStatus
		to   ReservationStatus
		want bool
	}{
		{"仮予約から確定", ReservationPending, ReservationConfirmed, true},
		{"仮予約からチェックイン", ReservationPending, ReservationCheckedIn, true},
		{"確定からキャンセル", ReservationConfirmed, ReservationCancelled, true},
		{"チェックインからチェックアウト", ReservationCheckedIn, ReservationCheckedOut, true},
		{"チェックアウトから支払い済みは請求書経由のみ", ReservationCheckedOut, ReservationPaid, false},
		{"同じ状態への再適用", ReservationCheckedOut, ReservationCheckedOut, true},
		{"仮予約から直接チェックアウト", ReservationPending, ReservationCheckedOut, false},
		{"キャンセル後のチェックイン", ReservationCancelled, ReservationCheckedIn, false},
		{"支払い済みからキャンセル", ReservationPaid, ReservationCancelled, false},
		{"チェックイン中のキャンセル", ReservationCheckedIn, ReservationCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestReservationStatus_IsTerminal(t *testing.T) {
	if !ReservationCancelled.IsTerminal() || !ReservationPaid.IsTerminal() {
		t.Error("Cancelled and Paid should be terminal")
	}
	if ReservationCheckedOut.IsTerminal() {
		t.Error("Checked-out can still move to Paid")
	}
}

func TestCode(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrRoomUnavailable)
	if got := Code(wrapped); got != CodeUnavailable {
		t.Errorf("Code() = %v, want %v", got, CodeUnavailable)
	}
	if got := Code(errors.New("plain")); got != "" {
		t.Errorf("Code() = %v, want empty", got)
	}
	if !errors.Is(wrapped, ErrRoomUnavailable) {
		t.Error("errors.Is should match the sentinel")
	}
}
