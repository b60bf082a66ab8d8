package audio

import (
	"context"
	"fmt"
)

// AdjustKind is the operation chosen by PlanAdjust.
type AdjustKind int

const (
	AdjustNone AdjustKind = iota
	AdjustChange
	AdjustSet
)

func (k AdjustKind) String() string {
	switch k {
	case AdjustChange:
		return "change"
	case AdjustSet:
		return "set"
	default:
		return "none"
	}
}

// AdjustPlan is the bounded result of one relative volume step.
type AdjustPlan struct {
	Kind AdjustKind
	// Step is the relative change for AdjustChange.
	Step int
	// Target is the expected first-channel volume after the plan runs.
	Target int
}

// PlanAdjust applies the asymmetric bound policy to a relative step.
//
// Decreases always apply in full and are not clamped at zero. Increases are
// skipped when the first channel is already at or above bound and are clamped
// to exactly bound when they would cross it.
func PlanAdjust(volumes []int, step int, bound int) AdjustPlan {
	current := 0
	if len(volumes) > 0 {
		current = volumes[0]
	}

	switch {
	case step == 0:
		return AdjustPlan{Kind: AdjustNone, Target: current}
	case step < 0:
		return AdjustPlan{Kind: AdjustChange, Step: step, Target: current + step}
	case len(volumes) == 0, current >= bound:
		return AdjustPlan{Kind: AdjustNone, Target: current}
	case current+step > bound:
		return AdjustPlan{Kind: AdjustSet, Target: bound}
	default:
		return AdjustPlan{Kind: AdjustChange, Step: step, Target: current + step}
	}
}

// ApplyAdjust executes a plan against one device.
func ApplyAdjust(ctx context.Context, ctl Controller, dev Device, plan AdjustPlan) error {
	switch plan.Kind {
	case AdjustNone:
		return nil
	case AdjustChange:
		return ctl.ChangeVolume(ctx, dev, plan.Step)
	case AdjustSet:
		return ctl.SetVolume(ctx, dev, plan.Target)
	default:
		return fmt.Errorf("unknown adjust kind %d", plan.Kind)
	}
}
