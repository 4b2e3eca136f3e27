// Package notation converts LaTeX math into natural spoken English. It runs
// before dialogue generation so the language model receives speakable text
// with no raw LaTeX.
package notation

import (
	"regexp"
	"strconv"
	"strings"
)

var greekLetters = map[string]string{
	"alpha": "alpha", "beta": "beta", "gamma": "gamma", "delta": "delta",
	"epsilon": "epsilon", "zeta": "zeta", "eta": "eta", "theta": "theta",
	"iota": "iota", "kappa": "kappa", "lambda": "lambda", "mu": "mu",
	"nu": "nu", "xi": "xi", "pi": "pi", "rho": "rho",
	"sigma": "sigma", "tau": "tau", "upsilon": "upsilon", "phi": "phi",
	"chi": "chi", "psi": "psi", "omega": "omega",
	"Alpha": "Alpha", "Beta": "Beta", "Gamma": "Gamma", "Delta": "Delta",
	"Epsilon": "Epsilon", "Zeta": "Zeta", "Eta": "Eta", "Theta": "Theta",
	"Lambda": "Lambda", "Xi": "Xi", "Pi": "Pi", "Sigma": "Sigma",
	"Phi": "Phi", "Psi": "Psi", "Omega": "Omega",
	"varepsilon": "epsilon", "varphi": "phi", "vartheta": "theta",
}

var operators = map[string]string{
	"cdot": "times", "times": "times", "div": "divided by",
	"pm": "plus or minus", "mp": "minus or plus",
	"leq": "less than or equal to", "geq": "greater than or equal to",
	"neq": "not equal to", "approx": "approximately",
	"equiv": "is equivalent to", "propto": "is proportional to",
	"infty": "infinity", "partial": "partial",
	"nabla": "nabla", "forall": "for all", "exists": "there exists",
	"in": "in", "notin": "not in", "subset": "subset of",
	"supset": "superset of", "cup": "union", "cap": "intersection",
	"to": "to", "rightarrow": "arrow", "Rightarrow": "implies",
	"leftarrow": "left arrow", "leftrightarrow": "if and only if",
	"ldots": "and so on", "cdots": "and so on", "dots": "and so on",
	"log": "log", "ln": "natural log of", "exp": "e to the power of",
	"sin": "sine", "cos": "cosine", "tan": "tangent",
	"max": "max", "min": "min", "arg": "arg",
	"lim": "the limit of",
	"det": "determinant of", "mod": "mod",
}

var accents = map[string]string{
	"hat": "hat", "bar": "bar", "tilde": "tilde",
	"vec": "vector", "dot": "dot", "ddot": "double dot",
	"overline": "bar", "underline": "underline",
}

var textCommands = map[string]struct{}{
	"text": {}, "mathrm": {}, "textbf": {}, "textit": {}, "mathbf": {},
	"mathit": {}, "mathcal": {}, "mathbb": {}, "operatorname": {},
}

var sizingCommands = map[string]struct{}{
	"left": {}, "right": {}, "big": {}, "Big": {}, "bigg": {}, "Bigg": {},
}

// SpokenMath converts a single LaTeX expression into spoken English.
//
//	SpokenMath("x^2 + y^2 = z^2")  ->  "x squared plus y squared equals z squared"
//	SpokenMath(`\frac{a}{b}`)      ->  "a divided by b"
func SpokenMath(expr string) string {
	return strings.TrimSpace(convertTokens(expr))
}

var placeholderPattern = regexp.MustCompile(`<<LATEX:(\d+)>>`)

// ReplacePlaceholders substitutes every <<LATEX:n>> marker with the spoken
// form of expressions[n]. Out-of-range markers are dropped.
func ReplacePlaceholders(text string, expressions []string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		idx, err := strconv.Atoi(groups[1])
		if err != nil || idx < 0 || idx >= len(expressions) {
			return ""
		}
		return SpokenMath(expressions[idx])
	})
}

// extractBraced returns the content of the brace group starting at start
// and the index just past the closing brace. Without an opening brace it
// grabs a single character, matching TeX's one-token argument rule.
func extractBraced(text string, start int) (string, int) {
	if start >= len(text) || text[start] != '{' {
		if start < len(text) {
			return string(text[start]), start + 1
		}
		return "", start
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start+1 : i], i + 1
			}
		}
	}
	return text[start+1:], len(text)
}

func nextArg(text string, pos int) (string, int) {
	for pos < len(text) && text[pos] == ' ' {
		pos++
	}
	if pos >= len(text) {
		return "", pos
	}
	return extractBraced(text, pos)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func convertTokens(latex string) string {
	var result []string
	i := 0
	n := len(latex)

	for i < n {
		ch := latex[i]

		if ch == '\\' {
			j := i + 1
			for j < n && isAlpha(latex[j]) {
				j++
			}
			cmd := latex[i+1 : j]
			i = j

			if spoken, ok := greekLetters[cmd]; ok {
				result = append(result, spoken)
				continue
			}
			if spoken, ok := operators[cmd]; ok {
				result = append(result, spoken)
				continue
			}
			if spoken, ok := accents[cmd]; ok {
				var arg string
				arg, i = nextArg(latex, i)
				result = append(result, convertTokens(arg)+" "+spoken)
				continue
			}
			switch cmd {
			case "frac":
				var num, den string
				num, i = nextArg(latex, i)
				den, i = nextArg(latex, i)
				result = append(result, convertTokens(num)+" divided by "+convertTokens(den))
				continue
			case "sqrt":
				degree := ""
				if i < n && latex[i] == '[' {
					if end := strings.IndexByte(latex[i:], ']'); end >= 0 {
						degree = latex[i+1 : i+end]
						i += end + 1
					}
				}
				var arg string
				arg, i = nextArg(latex, i)
				inner := convertTokens(arg)
				if degree != "" {
					result = append(result, "the "+convertTokens(degree)+" root of "+inner)
				} else {
					result = append(result, "the square root of "+inner)
				}
				continue
			case "sum":
				result = append(result, "the sum")
				continue
			case "prod":
				result = append(result, "the product")
				continue
			case "int", "iint", "iiint", "oint":
				result = append(result, "the integral")
				continue
			case "begin", "end":
				_, i = nextArg(latex, i)
				continue
			}
			if _, ok := textCommands[cmd]; ok {
				var arg string
				arg, i = nextArg(latex, i)
				result = append(result, convertTokens(arg))
				continue
			}
			if _, ok := sizingCommands[cmd]; ok {
				if i < n && strings.IndexByte(`()[]{}|.\/`, latex[i]) >= 0 {
					i++
				}
				continue
			}
			if cmd != "" {
				result = append(result, cmd)
			} else {
				// Escaped single character such as \{ or \%.
				if i < n {
					i++
				}
			}
			continue
		}

		if ch == '^' {
			var arg string
			arg, i = nextArg(latex, i+1)
			switch strings.TrimSpace(arg) {
			case "2":
				result = append(result, "squared")
			case "3":
				result = append(result, "cubed")
			case "T":
				result = append(result, "transpose")
			case "-1":
				result = append(result, "inverse")
			default:
				result = append(result, "to the power of "+convertTokens(arg))
			}
			continue
		}

		if ch == '_' {
			var arg string
			arg, i = nextArg(latex, i+1)
			result = append(result, "sub "+convertTokens(arg))
			continue
		}

		if ch == '{' {
			var content string
			content, i = extractBraced(latex, i)
			result = append(result, convertTokens(content))
			continue
		}

		switch ch {
		case ' ', '\t', '\n', '&':
			i++
			continue
		case '+':
			result = append(result, "plus")
			i++
			continue
		case '-':
			result = append(result, "minus")
			i++
			continue
		case '=':
			result = append(result, "equals")
			i++
			continue
		case '<':
			result = append(result, "less than")
			i++
			continue
		case '>':
			result = append(result, "greater than")
			i++
			continue
		case '(', ')', '[', ']', '|':
			i++
			continue
		case ',':
			result = append(result, ",")
			i++
			continue
		}

		if isDigit(ch) {
			j := i
			for j < n && isDigit(latex[j]) {
				j++
			}
			result = append(result, latex[i:j])
			i = j
			continue
		}
		if isAlpha(ch) {
			j := i
			for j < n && isAlpha(latex[j]) {
				j++
			}
			result = append(result, latex[i:j])
			i = j
			continue
		}

		result = append(result, string(ch))
		i++
	}

	return strings.Join(result, " ")
}
