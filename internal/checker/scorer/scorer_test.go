package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"passcheck/internal/checker/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name            string
		password        string
		wantScore       int
		wantLevel       models.Level
		wantValid       bool
		recommendations []string
	}{
		{
			name:      "lowercase only short password",
			password:  "abc",
			wantScore: 25, // 15 lowercase + 10 uniqueness (3 distinct of 3)
			wantLevel: models.LevelWeak,
			wantValid: false,
			recommendations: []string{
				"Use at least 8 characters (12+ recommended)",
				"Add uppercase letters",
				"Add numbers",
				"Add special characters (!@#$%^&*)",
			},
		},
		{
			name:      "strong mixed password",
			password:  "Abcdef123!",
			wantScore: 90, // 15 length + 15+15+15+20 classes + 10 uniqueness
			wantLevel: models.LevelVeryStrong,
			wantValid: true,
		},
		{
			name:      "empty password",
			password:  "",
			wantScore: 0,
			wantLevel: models.LevelVeryWeak,
			wantValid: false,
			recommendations: []string{
				"Use at least 8 characters (12+ recommended)",
				"Add uppercase letters",
				"Add lowercase letters",
				"Add numbers",
				"Add special characters (!@#$%^&*)",
			},
		},
		{
			name:      "twelve plus characters all classes",
			password:  "Abcdefgh123!x",
			wantScore: 100,
			wantLevel: models.LevelVeryStrong,
			wantValid: true,
		},
		{
			name:      "repetition forfeits the uniqueness bonus",
			password:  "Aaaaaaaa1!aa",
			wantScore: 90, // 25 length + 65 classes, distinct 4/12 < 0.7
			wantLevel: models.LevelVeryStrong,
			wantValid: true,
		},
		{
			name:      "digits only",
			password:  "1234567",
			wantScore: 25, // digits + uniqueness, below length threshold
			wantLevel: models.LevelWeak,
			wantValid: false,
			recommendations: []string{
				"Use at least 8 characters (12+ recommended)",
				"Add uppercase letters",
				"Add lowercase letters",
				"Add special characters (!@#$%^&*)",
			},
		},
		{
			name:      "medium band lower bound",
			password:  "abcdefgh",
			wantScore: 40, // 15 length + 15 lowercase + 10 uniqueness
			wantLevel: models.LevelMedium,
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.password)

			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantValid, got.IsValid)
			if tt.recommendations != nil {
				assert.Equal(t, tt.recommendations, got.Recommendations)
			}
			assert.Nil(t, got.RemainingChecks, "scorer never sets quota fields")
			assert.Nil(t, got.MaxChecksPerDay, "scorer never sets quota fields")
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	first := Evaluate("Tr0ub4dor&3")
	second := Evaluate("Tr0ub4dor&3")
	assert.Equal(t, first, second)
}

func TestEvaluateScoreBounds(t *testing.T) {
	inputs := []string{
		"", "a", "A1!", "abcdefghijklmnopqrstuvwxyz",
		"AAAAAAAAAAAAAAAAAAAAAAAA", "P@ssw0rd!P@ssw0rd!P@ssw0rd!",
		"пароль123!ДА", "🔑🔑🔑🔑🔑🔑🔑🔑",
	}
	for _, password := range inputs {
		got := Evaluate(password)
		assert.GreaterOrEqual(t, got.Score, 0, "password %q", password)
		assert.LessOrEqual(t, got.Score, 100, "password %q", password)
		assert.Equal(t, got.IsValid, got.Score >= 40, "password %q", password)
		assert.True(t, got.Level.IsValid(), "password %q", password)
	}
}

func TestLevelPartition(t *testing.T) {
	for score := 0; score <= 100; score++ {
		level := models.LevelFor(score)
		switch {
		case score >= 80:
			assert.Equal(t, models.LevelVeryStrong, level, "score %d", score)
		case score >= 60:
			assert.Equal(t, models.LevelStrong, level, "score %d", score)
		case score >= 40:
			assert.Equal(t, models.LevelMedium, level, "score %d", score)
		case score >= 20:
			assert.Equal(t, models.LevelWeak, level, "score %d", score)
		default:
			assert.Equal(t, models.LevelVeryWeak, level, "score %d", score)
		}
	}
}
