package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanAdjust(t *testing.T) {
	tests := []struct {
		name    string
		volumes []int
		step    int
		bound   int
		want    AdjustPlan
	}{
		{name: "within bound", volumes: []int{40, 40}, step: 20, bound: 100, want: AdjustPlan{Kind: AdjustChange, Step: 20, Target: 60}},
		{name: "clamped to bound", volumes: []int{90}, step: 20, bound: 100, want: AdjustPlan{Kind: AdjustSet, Target: 100}},
		{name: "exactly reaches bound", volumes: []int{80}, step: 20, bound: 100, want: AdjustPlan{Kind: AdjustChange, Step: 20, Target: 100}},
		{name: "already at bound", volumes: []int{100}, step: 20, bound: 100, want: AdjustPlan{Kind: AdjustNone, Target: 100}},
		{name: "above bound", volumes: []int{130}, step: 5, bound: 100, want: AdjustPlan{Kind: AdjustNone, Target: 130}},
		{name: "no channels", volumes: nil, step: 5, bound: 100, want: AdjustPlan{Kind: AdjustNone}},
		{name: "decrease unclamped", volumes: []int{30}, step: -50, bound: 100, want: AdjustPlan{Kind: AdjustChange, Step: -50, Target: -20}},
		{name: "decrease above bound", volumes: []int{130}, step: -10, bound: 100, want: AdjustPlan{Kind: AdjustChange, Step: -10, Target: 120}},
		{name: "decrease without channels", volumes: nil, step: -10, bound: 100, want: AdjustPlan{Kind: AdjustChange, Step: -10, Target: -10}},
		{name: "zero step", volumes: []int{50}, step: 0, bound: 100, want: AdjustPlan{Kind: AdjustNone, Target: 50}},
		{name: "extended bound", volumes: []int{140}, step: 20, bound: 150, want: AdjustPlan{Kind: AdjustSet, Target: 150}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, PlanAdjust(tc.volumes, tc.step, tc.bound))
		})
	}
}

func TestAdjustKindString(t *testing.T) {
	require.Equal(t, "none", AdjustNone.String())
	require.Equal(t, "change", AdjustChange.String())
	require.Equal(t, "set", AdjustSet.String())
}

func TestApplyAdjustDispatchesPlan(t *testing.T) {
	srv := newFakeServer()
	ctl := NewNativeController(srv)
	dev := Device{Filter: FilterSink, Name: "speakers", Volumes: []float64{0.9, 0.9}}

	require.NoError(t, ApplyAdjust(context.Background(), ctl, dev, PlanAdjust([]int{90}, 20, 100)))
	require.Equal(t, []float64{1, 1}, srv.volumes["speakers"])

	require.NoError(t, ApplyAdjust(context.Background(), ctl, dev, PlanAdjust([]int{90}, -10, 100)))
	require.InDeltaSlice(t, []float64{0.8, 0.8}, srv.volumes["speakers"], 1e-9)

	srv.volumes["speakers"] = nil
	require.NoError(t, ApplyAdjust(context.Background(), ctl, dev, PlanAdjust([]int{100}, 10, 100)))
	require.Nil(t, srv.volumes["speakers"])
}
