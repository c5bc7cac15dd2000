package classify

import (
	"regexp"
	"strings"
)

// soldiersTerm is the unambiguous military-personnel term substituted for
// slang that the model tends to misread as a reference to minors.
const soldiersTerm = "військові"

// Token-wise matching instead of \b: RE2 word boundaries are ASCII-only and
// never fire around Cyrillic letters.
var (
	tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	slangSoldiersRegex = regexp.MustCompile(`^(?i:хлопчик(и|ів|ам|ами)?|мальчик(и|ов|ам|ами)?)$`)

	militaryContextRegex = regexp.MustCompile(
		`^(?i:зсу|всу|військ|військов|бійц|підрозділ|позиці(я|ї)|окоп|штурм|удар|обстріл|дрон|fpv|ппо)$`)

	childExplicitRegex = regexp.MustCompile(
		`^(?i:дитин(а|и|і|ою|ам|ах)|діти|школяр(і|ів|ям|ями)|неповнолітн(і|іх|им|ими)|малолітн(і|іх))$`)
)

// NormalizeText rewrites ambiguous military slang into soldiersTerm, but
// only when the text also carries a military-context marker and no explicit
// minor-referencing marker. This is a precision safeguard against one known
// misclassification mode, not a general censor.
func NormalizeText(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return t
	}

	if !containsToken(t, slangSoldiersRegex) ||
		!containsToken(t, militaryContextRegex) ||
		containsToken(t, childExplicitRegex) {
		return t
	}

	return tokenRegex.ReplaceAllStringFunc(t, func(token string) string {
		if slangSoldiersRegex.MatchString(token) {
			return soldiersTerm
		}

		return token
	})
}

func containsToken(text string, pattern *regexp.Regexp) bool {
	for _, token := range tokenRegex.FindAllString(text, -1) {
		if pattern.MatchString(token) {
			return true
		}
	}

	return false
}
