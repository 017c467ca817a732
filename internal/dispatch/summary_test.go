package dispatch

import "testing"

func TestCallSummaries(t *testing.T) {
	cases := []struct {
		tool   string
		params map[string]any
		want   string
	}{
		{
			tool:   "perform_attack",
			params: map[string]any{"attacker": "Amiya", "defender": "Wraith", "weapon": "staff"},
			want:   "Amiya → Wraith using staff",
		},
		{
			tool:   "advance_position",
			params: map[string]any{"name": "Amiya", "target": "gate", "steps": float64(3)},
			want:   "Amiya advances toward gate (3 steps)",
		},
		{
			tool:   "adjust_relation",
			params: map[string]any{"a": "Amiya", "b": "Doctor", "value": float64(5)},
			want:   "relation Amiya ↔ Doctor adjusted by 5",
		},
		{
			tool:   "transfer_item",
			params: map[string]any{"target": "Doctor", "item": "bandage", "n": float64(2)},
			want:   "Doctor receives 2× bandage",
		},
		{
			tool:   "summon_meteor",
			params: map[string]any{"anything": true},
			want:   "tool summon_meteor invoked",
		},
		{
			tool:   "perform_attack",
			params: nil,
			want:   "? → ? using ?",
		},
	}
	for _, tc := range cases {
		if got := CallSummary(tc.tool, tc.params); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.tool, tc.want, got)
		}
	}
}

func TestStripRationale(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Wraith takes 4 damage 理由：it was hostile", "Wraith takes 4 damage"},
		{"moved 3 tiles\n行动理由: cover the retreat", "moved 3 tiles"},
		{"done. Reason: scripted", "done."},
		{"reason: entire line is rationale", ""},
		{"no marker here", "no marker here"},
	}
	for _, tc := range cases {
		if got := StripRationale(tc.in); got != tc.want {
			t.Fatalf("StripRationale(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResultSummaryJoinsLines(t *testing.T) {
	got := ResultSummary("perform_attack", []string{"hit for 4", "Wraith staggers", "理由：aggression"})
	if got != "hit for 4; Wraith staggers" {
		t.Fatalf("unexpected summary %q", got)
	}
	if ResultSummary("x", nil) != "" {
		t.Fatalf("empty result must render nothing")
	}
}
