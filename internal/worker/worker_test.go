package worker

import "testing"

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Great talk, really helpful!", "positive"},
		{"I love it", "positive"},
		{"boring and confusing", "negative"},
		{"The pacing was slow.", "negative"},
		{"it was a talk about databases", "neutral"},
		{"", "neutral"},
		{"good but unclear", "neutral"},
		{"GOOD, Good, good!", "positive"},
	}
	for _, tt := range tests {
		if got := scoreSentiment(tt.text); got != tt.want {
			t.Errorf("scoreSentiment(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
