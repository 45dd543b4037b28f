package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
)

var (
	placeholderRe  = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	variableNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// ChooseValues draws one concrete value per declared variable: a uniform
// pick from the choice list, or a number from [min, max] (integer when int
// is set, rounded to precision decimals when given). Variables with neither
// form default to the constant 1. Every call is an independent draw.
// Variables are drawn in sorted name order so a seeded source reproduces
// the same bindings; map iteration order would break seeded publish runs.
func ChooseValues(variables model.VarMap, rng random.Rand) map[string]interface{} {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]interface{}, len(variables))
	for _, name := range names {
		def := variables[name]
		switch {
		case len(def.Choices) > 0:
			values[name] = def.Choices[rng.Intn(len(def.Choices))]
		case def.Min != nil && def.Max != nil:
			min, max := *def.Min, *def.Max
			if def.Int {
				// Ceil/floor keep the draw inside [min, max]; plain int()
				// truncation toward zero can land below a fractional min.
				lo, hi := int(math.Ceil(min)), int(math.Floor(max))
				if hi < lo {
					values[name] = lo
				} else {
					values[name] = lo + rng.Intn(hi-lo+1)
				}
			} else {
				v := min + rng.Float64()*(max-min)
				if def.Precision > 0 {
					shift := math.Pow10(def.Precision)
					v = math.Round(v*shift) / shift
				}
				values[name] = v
			}
		default:
			values[name] = 1
		}
	}
	return values
}

// RenderTemplate replaces every literal {{name}} occurrence with the
// stringified bound value. Placeholders with no bound value are left
// verbatim; templates are validated at creation so this path should be
// unreachable for published content.
func RenderTemplate(markdown string, values map[string]interface{}) string {
	return placeholderRe.ReplaceAllStringFunc(markdown, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		v, ok := values[name]
		if !ok {
			return match
		}
		return FormatValue(v)
	})
}

// FormatValue stringifies a bound variable value the way it should appear
// in a rendered prompt: integral floats without a trailing ".0".
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ValidateVariables checks every declared variable: a well-formed name and
// exactly one of a non-empty choice list or a sane min/max range.
func ValidateVariables(variables model.VarMap) []string {
	var errs []string
	if len(variables) == 0 {
		return []string{"variables must declare at least one variable"}
	}
	for name, def := range variables {
		if !variableNameRe.MatchString(name) {
			errs = append(errs, fmt.Sprintf("variable name %q must start with a letter and contain only letters, numbers, and underscores", name))
			continue
		}
		switch {
		case def.Choices != nil:
			if len(def.Choices) == 0 {
				errs = append(errs, fmt.Sprintf("variable %q choices cannot be empty", name))
			}
		case def.Min != nil || def.Max != nil:
			if def.Min == nil || def.Max == nil {
				errs = append(errs, fmt.Sprintf("variable %q must declare both min and max", name))
			} else if *def.Min >= *def.Max {
				errs = append(errs, fmt.Sprintf("variable %q min must be less than max", name))
			} else if def.Int && math.Floor(*def.Max) < math.Ceil(*def.Min) {
				errs = append(errs, fmt.Sprintf("variable %q range [%v, %v] contains no integers", name, *def.Min, *def.Max))
			}
		default:
			errs = append(errs, fmt.Sprintf("variable %q must have either a choices list or a min/max range", name))
		}
	}
	return errs
}

// ValidatePlaceholders requires every {{name}} in the markdown to resolve to
// a declared variable. Templates that reference undeclared variables fail
// creation instead of leaking literal placeholders to students.
func ValidatePlaceholders(markdown string, variables model.VarMap) []string {
	var errs []string
	for _, match := range placeholderRe.FindAllStringSubmatch(markdown, -1) {
		name := strings.TrimSpace(match[1])
		if _, ok := variables[name]; !ok {
			errs = append(errs, fmt.Sprintf("placeholder {{%s}} has no corresponding variable definition", name))
		}
	}
	return errs
}

// NormalizeDifficulty maps loose admin input onto the canonical three-level
// scale, defaulting to med.
func NormalizeDifficulty(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "easy", "e":
		return model.DifficultyEasy
	case "hard", "h", "difficult":
		return model.DifficultyHard
	default:
		return model.DifficultyMed
	}
}
