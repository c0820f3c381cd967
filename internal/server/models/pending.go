package models

import (
	"encoding/json"
	"fmt"
)

// PendingState is the step of a one-shot admin input an account is in. An
// account has at most one pending state; Idle means none.
type PendingState string

const (
	StateIdle                 PendingState = ""
	StateAwaitingChannels     PendingState = "admin_set_channels"
	StateAwaitingPointValue   PendingState = "admin_set_rule_points"
	StateAwaitingCouponCodes  PendingState = "admin_add_coupons"
	StateAwaitingRemovalCount PendingState = "admin_remove_coupons"
)

// PendingAction is the persisted admin wizard state: a state tag plus the
// coupon class it applies to, when the state needs one.
type PendingAction struct {
	State PendingState
	Class CouponClass
}

type pendingPayload struct {
	Type CouponClass `json:"type,omitempty"`
}

// NeedsClass reports whether the state carries a coupon class.
func (s PendingState) NeedsClass() bool {
	switch s {
	case StateAwaitingPointValue, StateAwaitingCouponCodes, StateAwaitingRemovalCount:
		return true
	}
	return false
}

func (s PendingState) Known() bool {
	switch s {
	case StateIdle, StateAwaitingChannels, StateAwaitingPointValue, StateAwaitingCouponCodes, StateAwaitingRemovalCount:
		return true
	}
	return false
}

func (p PendingAction) IsIdle() bool { return p.State == StateIdle }

// Validate checks the state tag and that a class is present exactly when the
// state needs one.
func (p PendingAction) Validate() error {
	if !p.State.Known() {
		return fmt.Errorf("unknown pending state %q", p.State)
	}
	if p.State.NeedsClass() && !p.Class.Valid() {
		return fmt.Errorf("pending state %q needs a coupon class, got %q", p.State, p.Class)
	}
	if !p.State.NeedsClass() && p.Class != "" {
		return fmt.Errorf("pending state %q takes no coupon class", p.State)
	}
	return nil
}

// Encode returns the column values for the state tag and payload. Idle
// encodes as two NULLs.
func (p PendingAction) Encode() (*string, []byte, error) {
	if p.IsIdle() {
		return nil, nil, nil
	}
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	payload, err := json.Marshal(pendingPayload{Type: p.Class})
	if err != nil {
		return nil, nil, err
	}
	state := string(p.State)
	return &state, payload, nil
}

// DecodePendingAction rebuilds a PendingAction from its column values.
func DecodePendingAction(state *string, payload []byte) (PendingAction, error) {
	if state == nil || *state == "" {
		return PendingAction{}, nil
	}
	p := PendingAction{State: PendingState(*state)}
	if len(payload) > 0 {
		var pl pendingPayload
		if err := json.Unmarshal(payload, &pl); err != nil {
			return PendingAction{}, fmt.Errorf("decode pending payload: %w", err)
		}
		p.Class = pl.Type
	}
	if err := p.Validate(); err != nil {
		return PendingAction{}, err
	}
	return p, nil
}
