package metabolic

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// GPR is a parsed gene-reaction rule such as "(b0001 and b0002) or b0003".
//
// Gene identifiers are rewritten to placeholder variables and the boolean expression is compiled once with
// expr. Evaluating the rule binds every placeholder to the state of its gene.
type GPR struct {
	rule    string
	program *vm.Program
	genes   []string
}

// ParseGPR parses a rule. An empty rule yields a nil GPR, which never blocks its reaction.
func ParseGPR(rule string) (*GPR, error) {
	tokens := tokenizeGPR(rule)
	if len(tokens) == 0 {
		return nil, nil
	}

	var (
		src   strings.Builder
		genes []string
		env   = map[string]any{}
		seen  = map[string]string{}
	)
	for _, token := range tokens {
		if src.Len() > 0 {
			src.WriteByte(' ')
		}
		switch {
		case token == "(" || token == ")":
			src.WriteString(token)
		case isOperator(token, "and"):
			src.WriteString("and")
		case isOperator(token, "or"):
			src.WriteString("or")
		default:
			name, ok := seen[token]
			if !ok {
				name = "g" + strconv.Itoa(len(genes))
				seen[token] = name
				genes = append(genes, token)
				env[name] = true
			}
			src.WriteString(name)
		}
	}

	program, err := expr.Compile(src.String(), expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRule, "rule %q: %s", rule, firstLine(err.Error()))
	}

	return &GPR{rule: strings.TrimSpace(rule), program: program, genes: genes}, nil
}

// Eval reports whether the rule holds when only genes for which functional returns true are present.
func (g *GPR) Eval(functional func(gene string) bool) bool {
	if g == nil {
		return true
	}

	env := make(map[string]any, len(g.genes))
	for i, gene := range g.genes {
		env["g"+strconv.Itoa(i)] = functional(gene)
	}
	out, err := expr.Run(g.program, env)
	if err != nil {
		// every placeholder is bound, a failure means the compiled rule is corrupt
		panic(errors.Wrapf(err, "unable to evaluate rule %q", g.rule))
	}

	return out.(bool)
}

// Genes lists the genes of the rule in order of first appearance.
func (g *GPR) Genes() []string {
	if g == nil {
		return nil
	}

	return append([]string(nil), g.genes...)
}

func (g *GPR) String() string {
	if g == nil {
		return ""
	}

	return g.rule
}

func tokenizeGPR(rule string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range rule {
		switch {
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func isOperator(token, op string) bool {
	switch op {
	case "and":
		return strings.EqualFold(token, "and") || token == "&&" || token == "&"
	default:
		return strings.EqualFold(token, "or") || token == "||" || token == "|"
	}
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}

	return msg
}
