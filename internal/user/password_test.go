package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

func TestScorePassword(t *testing.T) {
	type testCase struct {
		name      string
		password  string
		wantScore int
		wantLabel string
		wantValid bool
	}

	tests := []testCase{
		{name: "Empty", password: "", wantScore: 0, wantLabel: "Very Weak"},
		{name: "ShortLower", password: "abc", wantScore: 20, wantLabel: "Very Weak"},
		{name: "LowerOnly", password: "password", wantScore: 40, wantLabel: "Weak"},
		{name: "NoSpecial", password: "Password1", wantScore: 80, wantLabel: "Good"},
		{name: "LongButMissingClasses", password: "passwordpass1", wantScore: 70, wantLabel: "Good"},
		{name: "AllRequirements", password: "Passw0rd!", wantScore: 100, wantLabel: "Very Strong", wantValid: true},
		{name: "CappedAtHundred", password: "Correct-Horse-Battery-9", wantScore: 100, wantLabel: "Very Strong", wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := user.ScorePassword(tt.password)

			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Len(t, got.Requirements, 5)
		})
	}
}
