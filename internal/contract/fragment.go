package contract

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrBadFragment is returned for signatures ParseFragment cannot read.
var ErrBadFragment = errors.New("invalid ABI fragment")

// ParseFragments parses several human-readable function signatures.
func ParseFragments(sigs []string) ([]ABIEntry, error) {
	out := make([]ABIEntry, 0, len(sigs))
	for _, s := range sigs {
		e, err := ParseFragment(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// MustParseFragments is ParseFragments for package-level built-ins.
func MustParseFragments(sigs ...string) []ABIEntry {
	out, err := ParseFragments(sigs)
	if err != nil {
		panic(err)
	}
	return out
}

// ParseFragment reads a Solidity-style function signature such as
//
//	function getVestingSchedule(address who) external view returns (tuple(uint256 total, uint256 released))
//
// The leading "function" keyword is optional. Data-location keywords and
// visibility are accepted and dropped.
func ParseFragment(sig string) (ABIEntry, error) {
	s := strings.TrimSpace(sig)
	s = strings.TrimPrefix(s, "function ")
	s = strings.TrimSpace(s)

	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return ABIEntry{}, fmt.Errorf("%w: %q: missing name or parameter list", ErrBadFragment, sig)
	}
	name := strings.TrimSpace(s[:open])
	if !isIdent(name) {
		return ABIEntry{}, fmt.Errorf("%w: %q: bad function name %q", ErrBadFragment, sig, name)
	}

	end, err := matchParen(s, open)
	if err != nil {
		return ABIEntry{}, fmt.Errorf("%w: %q: %v", ErrBadFragment, sig, err)
	}
	inputs, err := parseParams(s[open+1 : end])
	if err != nil {
		return ABIEntry{}, fmt.Errorf("%w: %q: %v", ErrBadFragment, sig, err)
	}

	e := ABIEntry{
		Name:            name,
		Type:            "function",
		Inputs:          inputs,
		Outputs:         []ABIParam{},
		StateMutability: "nonpayable",
	}

	rest := strings.TrimSpace(s[end+1:])
	for rest != "" {
		word, tail := nextWord(rest)
		switch word {
		case "external", "public", "internal", "private", "virtual", "override":
		case "view", "pure", "payable", "nonpayable":
			e.StateMutability = word
		case "returns":
			tail = strings.TrimSpace(tail)
			if !strings.HasPrefix(tail, "(") {
				return ABIEntry{}, fmt.Errorf("%w: %q: returns needs a parameter list", ErrBadFragment, sig)
			}
			retEnd, err := matchParen(tail, 0)
			if err != nil {
				return ABIEntry{}, fmt.Errorf("%w: %q: %v", ErrBadFragment, sig, err)
			}
			if e.Outputs, err = parseParams(tail[1:retEnd]); err != nil {
				return ABIEntry{}, fmt.Errorf("%w: %q: %v", ErrBadFragment, sig, err)
			}
			tail = tail[retEnd+1:]
		default:
			return ABIEntry{}, fmt.Errorf("%w: %q: unexpected %q", ErrBadFragment, sig, word)
		}
		rest = strings.TrimSpace(tail)
	}
	return e, nil
}

// parseParams parses a comma separated parameter list without the
// surrounding parentheses.
func parseParams(list string) ([]ABIParam, error) {
	parts, err := splitTopLevel(list)
	if err != nil {
		return nil, err
	}
	params := make([]ABIParam, 0, len(parts))
	for _, p := range parts {
		param, err := parseParam(p)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func parseParam(s string) (ABIParam, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ABIParam{}, errors.New("empty parameter")
	}

	var p ABIParam
	var rest string
	if strings.HasPrefix(s, "tuple(") || strings.HasPrefix(s, "(") {
		open := strings.IndexByte(s, '(')
		end, err := matchParen(s, open)
		if err != nil {
			return ABIParam{}, err
		}
		if p.Components, err = parseParams(s[open+1 : end]); err != nil {
			return ABIParam{}, err
		}
		suffix, tail := arraySuffix(s[end+1:])
		p.Type = "tuple" + suffix
		rest = tail
	} else {
		var typ string
		typ, rest = nextWord(s)
		base, suffix := splitArray(typ)
		if !isIdent(base) {
			return ABIParam{}, fmt.Errorf("bad type %q", typ)
		}
		p.Type = canonicalType(base) + suffix
	}

	for _, w := range strings.Fields(rest) {
		switch w {
		case "memory", "calldata", "storage", "indexed":
		default:
			if p.Name != "" || !isIdent(w) {
				return ABIParam{}, fmt.Errorf("unexpected %q in parameter %q", w, s)
			}
			p.Name = w
		}
	}
	return p, nil
}

// canonicalType expands the uint/int aliases.
func canonicalType(t string) string {
	switch t {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	case "byte":
		return "bytes1"
	}
	return t
}

// splitArray separates "uint256[2][]" into "uint256" and "[2][]".
func splitArray(t string) (string, string) {
	if i := strings.IndexByte(t, '['); i >= 0 {
		return t[:i], t[i:]
	}
	return t, ""
}

// arraySuffix consumes leading "[..]" groups.
func arraySuffix(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] == '[' {
		j := strings.IndexByte(s[i:], ']')
		if j < 0 {
			break
		}
		i += j + 1
	}
	return s[:i], s[i:]
}

func splitTopLevel(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced parentheses")
	}
	return append(parts, s[start:]), nil
}

// matchParen returns the index of the parenthesis closing s[open].
func matchParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errors.New("unbalanced parentheses")
}

func nextWord(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
