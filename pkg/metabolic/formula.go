package metabolic

import (
	"regexp"
	"strconv"
)

var (
	formulaPattern = regexp.MustCompile(`^(?:[A-Z][a-z]*[0-9]*)+$`)
	elementPattern = regexp.MustCompile(`([A-Z][a-z]*)([0-9]*)`)
)

// ParseFormula counts the atoms of each element in a chemical formula such as "C6H12O6".
// A missing or unparseable formula yields an empty count rather than an error: formula quality varies a lot
// between models.
func ParseFormula(formula string) map[string]int {
	counts := map[string]int{}
	if !formulaPattern.MatchString(formula) {
		return counts
	}

	for _, match := range elementPattern.FindAllStringSubmatch(formula, -1) {
		n := 1
		if match[2] != "" {
			v, err := strconv.Atoi(match[2])
			if err != nil {
				return map[string]int{}
			}
			n = v
		}
		counts[match[1]] += n
	}

	return counts
}
