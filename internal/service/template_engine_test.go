package service

import (
	"strings"
	"testing"

	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
)

func TestChooseValuesIntRangeInclusive(t *testing.T) {
	variables := model.VarMap{
		"n": {Min: floatPtr(2), Max: floatPtr(5), Int: true},
	}
	rng := random.NewSeeded(7)
	for i := 0; i < 200; i++ {
		values := ChooseValues(variables, rng)
		n, ok := values["n"].(int)
		if !ok {
			t.Fatalf("expected int, got %T", values["n"])
		}
		if n < 2 || n > 5 {
			t.Fatalf("value %d outside [2, 5]", n)
		}
	}
}

func TestChooseValuesIntRangeFractionalBounds(t *testing.T) {
	variables := model.VarMap{
		"n": {Min: floatPtr(0.9), Max: floatPtr(2), Int: true},
	}
	rng := random.NewSeeded(13)
	for i := 0; i < 200; i++ {
		values := ChooseValues(variables, rng)
		n := values["n"].(int)
		if n < 1 || n > 2 {
			t.Fatalf("value %d outside [1, 2] for range [0.9, 2]", n)
		}
	}
}

func TestChooseValuesChoices(t *testing.T) {
	variables := model.VarMap{
		"op": {Choices: []interface{}{"+", "-"}},
	}
	rng := random.NewSeeded(1)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		values := ChooseValues(variables, rng)
		op, ok := values["op"].(string)
		if !ok || (op != "+" && op != "-") {
			t.Fatalf("unexpected choice value %v", values["op"])
		}
		seen[op] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected both choices drawn over 50 samples, got %v", seen)
	}
}

func TestChooseValuesFloatPrecision(t *testing.T) {
	variables := model.VarMap{
		"x": {Min: floatPtr(0), Max: floatPtr(1), Precision: 2},
	}
	rng := random.NewSeeded(3)
	values := ChooseValues(variables, rng)
	x, ok := values["x"].(float64)
	if !ok {
		t.Fatalf("expected float64, got %T", values["x"])
	}
	formatted := FormatValue(x)
	if dot := strings.Index(formatted, "."); dot != -1 && len(formatted)-dot-1 > 2 {
		t.Errorf("value %s has more than 2 decimals", formatted)
	}
}

func TestChooseValuesDefaultsToOne(t *testing.T) {
	values := ChooseValues(model.VarMap{"x": {}}, random.NewSeeded(1))
	if values["x"] != 1 {
		t.Errorf("expected default 1, got %v", values["x"])
	}
}

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		values   map[string]interface{}
		want     string
	}{
		{
			name:     "substitutes all placeholders",
			markdown: "Differentiate f(x) = {{a}}x^{{n}}",
			values:   map[string]interface{}{"a": 3, "n": 4},
			want:     "Differentiate f(x) = 3x^4",
		},
		{
			name:     "repeated placeholder",
			markdown: "{{x}} + {{x}}",
			values:   map[string]interface{}{"x": 2},
			want:     "2 + 2",
		},
		{
			name:     "unresolved placeholder stays verbatim",
			markdown: "solve {{a}} and {{missing}}",
			values:   map[string]interface{}{"a": 1},
			want:     "solve 1 and {{missing}}",
		},
		{
			name:     "integral float renders without decimal",
			markdown: "{{v}}",
			values:   map[string]interface{}{"v": 4.0},
			want:     "4",
		},
		{
			name:     "fractional float keeps decimals",
			markdown: "{{v}}",
			values:   map[string]interface{}{"v": 0.5},
			want:     "0.5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.markdown, tt.values); got != tt.want {
				t.Errorf("RenderTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables model.VarMap
		wantErrs  int
	}{
		{"valid choices", model.VarMap{"op": {Choices: []interface{}{"+"}}}, 0},
		{"valid range", model.VarMap{"n": {Min: floatPtr(1), Max: floatPtr(9)}}, 0},
		{"empty map", model.VarMap{}, 1},
		{"empty choices", model.VarMap{"op": {Choices: []interface{}{}}}, 1},
		{"min only", model.VarMap{"n": {Min: floatPtr(1)}}, 1},
		{"min not below max", model.VarMap{"n": {Min: floatPtr(5), Max: floatPtr(5)}}, 1},
		{"int range with no integers", model.VarMap{"n": {Min: floatPtr(0.2), Max: floatPtr(0.8), Int: true}}, 1},
		{"int range with fractional bounds", model.VarMap{"n": {Min: floatPtr(0.9), Max: floatPtr(2.1), Int: true}}, 0},
		{"bad name", model.VarMap{"1x": {Choices: []interface{}{"a"}}}, 1},
		{"no domain", model.VarMap{"x": {}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateVariables(tt.variables); len(got) != tt.wantErrs {
				t.Errorf("ValidateVariables() = %v, want %d errors", got, tt.wantErrs)
			}
		})
	}
}

func TestValidatePlaceholders(t *testing.T) {
	variables := model.VarMap{"a": {Choices: []interface{}{1}}}
	if errs := ValidatePlaceholders("{{a}} is fine", variables); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	errs := ValidatePlaceholders("{{a}} but {{b}} is not", variables)
	if len(errs) != 1 || !strings.Contains(errs[0], "{{b}}") {
		t.Errorf("expected one error naming {{b}}, got %v", errs)
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"easy", model.DifficultyEasy},
		{"E", model.DifficultyEasy},
		{"hard", model.DifficultyHard},
		{"Difficult", model.DifficultyHard},
		{"med", model.DifficultyMed},
		{"", model.DifficultyMed},
		{"banana", model.DifficultyMed},
	}
	for _, tt := range tests {
		if got := NormalizeDifficulty(tt.in); got != tt.want {
			t.Errorf("NormalizeDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
