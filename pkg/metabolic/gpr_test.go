package metabolic_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic"
)

func TestParseGPR(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		rule    string
		deleted []string
		genes   []string
		want    bool
	}{
		"empty rule":            {rule: "", want: true},
		"single gene present":   {rule: "b1", genes: []string{"b1"}, want: true},
		"single gene deleted":   {rule: "b1", deleted: []string{"b1"}, genes: []string{"b1"}, want: false},
		"or keeps isozyme":      {rule: "b1 or b2", deleted: []string{"b1"}, genes: []string{"b1", "b2"}, want: true},
		"and needs every gene":  {rule: "b1 and b2", deleted: []string{"b2"}, genes: []string{"b1", "b2"}, want: false},
		"and binds tighter":     {rule: "b1 or b2 and b3", deleted: []string{"b1", "b3"}, genes: []string{"b1", "b2", "b3"}, want: false},
		"parentheses":           {rule: "(b1 or b2) and b3", deleted: []string{"b1"}, genes: []string{"b1", "b2", "b3"}, want: true},
		"symbolic operators":    {rule: "(b1 || b2) && b3", deleted: []string{"b3"}, genes: []string{"b1", "b2", "b3"}, want: false},
		"upper case operators":  {rule: "b1 OR b2", deleted: []string{"b2"}, genes: []string{"b1", "b2"}, want: true},
		"repeated gene":         {rule: "(b1 and b2) or (b1 and b3)", deleted: []string{"b1"}, genes: []string{"b1", "b2", "b3"}, want: false},
		"nested without spaces": {rule: "((b1)or(b2))", deleted: []string{"b2"}, genes: []string{"b1", "b2"}, want: true},
		"punctuated gene ids":   {rule: "YAL001C-A or 10.1_b", deleted: []string{"YAL001C-A"}, genes: []string{"YAL001C-A", "10.1_b"}, want: true},
		"keyword like gene id":  {rule: "not and b1", deleted: []string{"not"}, genes: []string{"not", "b1"}, want: false},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gpr, err := metabolic.ParseGPR(tc.rule)
			require.NoError(t, err)

			deleted := map[string]bool{}
			for _, g := range tc.deleted {
				deleted[g] = true
			}
			assert.Equal(t, tc.want, gpr.Eval(func(g string) bool { return !deleted[g] }))
			assert.Equal(t, tc.genes, gpr.Genes())
		})
	}
}

func TestParseGPRInvalid(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{"b1 and", "or b1", "(b1 or b2", "b1 b2", "b1 )", "()"} {
		_, err := metabolic.ParseGPR(rule)
		assert.True(t, errors.Is(err, metabolic.ErrInvalidRule), rule)
	}
}

func TestGPREvalReusesRule(t *testing.T) {
	t.Parallel()

	gpr, err := metabolic.ParseGPR("(b1 and b2) or b3")
	require.NoError(t, err)

	calls := map[string]int{}
	for _, deleted := range []string{"b1", "b2", "b3", ""} {
		deleted := deleted
		got := gpr.Eval(func(g string) bool {
			calls[g]++

			return g != deleted
		})
		assert.True(t, got, deleted)
	}
	assert.Equal(t, map[string]int{"b1": 4, "b2": 4, "b3": 4}, calls)
	assert.Equal(t, "(b1 and b2) or b3", gpr.String())
}

func TestParseFormula(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		formula string
		want    map[string]int
	}{
		"glucose":       {formula: "C6H12O6", want: map[string]int{"C": 6, "H": 12, "O": 6}},
		"implicit one":  {formula: "NH4", want: map[string]int{"N": 1, "H": 4}},
		"two letters":   {formula: "CoA", want: map[string]int{"Co": 1, "A": 1}},
		"repeated":      {formula: "CH3COOH", want: map[string]int{"C": 2, "H": 4, "O": 2}},
		"empty":         {formula: "", want: map[string]int{}},
		"charge suffix": {formula: "C6H12O6-", want: map[string]int{}},
		"r group":       {formula: "C5H8NO4R*", want: map[string]int{}},
		"lower start":   {formula: "h2o", want: map[string]int{}},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, metabolic.ParseFormula(tc.formula))
		})
	}
}
