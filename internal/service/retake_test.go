package service

import (
	"testing"

	"github.com/luminlms/assessment-engine/internal/model"
)

func TestRetakePolicy_MayAttempt(t *testing.T) {
	var policy RetakePolicy

	cases := []struct {
		name           string
		retake         int
		closedAttempts int
		want           bool
	}{
		{"first attempt always allowed", 1, 0, true},
		{"re-attempt within budget", 1, 1, true},
		{"budget of retake+1 exhausted", 1, 2, false},
		{"beyond the budget stays refused", 1, 3, false},
		{"larger budget last slot", 3, 3, true},
		{"larger budget exhausted", 3, 4, false},
		{"zero retake means unlimited", 0, 100, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &model.Assessment{Retake: tc.retake}
			if got := policy.MayAttempt(a, tc.closedAttempts); got != tc.want {
				t.Errorf("MayAttempt(retake=%d, closed=%d) = %v, want %v",
					tc.retake, tc.closedAttempts, got, tc.want)
			}
		})
	}
}
