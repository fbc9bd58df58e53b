package flow

import "testing"

func TestEvaluateEligibilityFullProfile(t *testing.T) {
	data := map[string]string{
		"age":        "30",
		"education":  "Bachelor's Degree",
		"experience": "3",
		"ielts":      "7",
		"country":    "Canada",
	}

	result, score := EvaluateEligibility(data)
	if score != 9 {
		t.Errorf("expected score 9, got %d", score)
	}
	if result != EligibilityHighChance {
		t.Errorf("expected %q, got %q", EligibilityHighChance, result)
	}
}

func TestEvaluateEligibilityBuckets(t *testing.T) {
	tests := []struct {
		name string
		data map[string]string
		want EligibilityResult
	}{
		{
			name: "empty profile is low chance",
			data: map[string]string{},
			want: EligibilityLowChance,
		},
		{
			name: "two criteria is possible",
			data: map[string]string{"age": "25", "education": "Master of Science"},
			want: EligibilityPossible,
		},
		{
			name: "boundary score seven is high chance",
			data: map[string]string{"age": "25", "education": "PhD", "ielts": "6", "country": "Germany"},
			want: EligibilityHighChance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := EvaluateEligibility(tt.data)
			if result != tt.want {
				t.Errorf("expected %q, got %q", tt.want, result)
			}
		})
	}
}

func TestEvaluateEligibilityCriteria(t *testing.T) {
	score := func(data map[string]string) int {
		_, s := EvaluateEligibility(data)
		return s
	}

	if s := score(map[string]string{"age": "17"}); s != 0 {
		t.Errorf("age below bracket scored %d", s)
	}
	if s := score(map[string]string{"age": "46"}); s != 0 {
		t.Errorf("age above bracket scored %d", s)
	}
	if s := score(map[string]string{"age": "18"}); s != 2 {
		t.Errorf("bracket lower bound scored %d", s)
	}
	if s := score(map[string]string{"age": "45"}); s != 2 {
		t.Errorf("bracket upper bound scored %d", s)
	}
	if s := score(map[string]string{"education": "High School"}); s != 0 {
		t.Errorf("non-degree education scored %d", s)
	}
	if s := score(map[string]string{"experience": "1.5"}); s != 0 {
		t.Errorf("short experience scored %d", s)
	}
	if s := score(map[string]string{"ielts": "5.5"}); s != 0 {
		t.Errorf("low IELTS scored %d", s)
	}
	if s := score(map[string]string{"ielts": "not yet"}); s != 0 {
		t.Errorf("unparseable IELTS scored %d", s)
	}
	if s := score(map[string]string{"country": "India"}); s != 0 {
		t.Errorf("India residence scored %d", s)
	}
	if s := score(map[string]string{"country": "india"}); s != 0 {
		t.Errorf("lowercase India residence scored %d", s)
	}
	if s := score(map[string]string{"country": "Nepal"}); s != 1 {
		t.Errorf("non-India residence scored %d", s)
	}
}

func TestEvaluateEligibilityMonotonicity(t *testing.T) {
	base := map[string]string{"age": "30"}
	_, baseScore := EvaluateEligibility(base)

	richer := map[string]string{"age": "30", "ielts": "8"}
	_, richerScore := EvaluateEligibility(richer)

	if richerScore <= baseScore {
		t.Errorf("adding a satisfied criterion must raise the score: %d -> %d", baseScore, richerScore)
	}
}
