// Package jsonrule is the outer JSON realization of the rule/event
// contracts machine, byteauto and event declare but never implement
// themselves: compiling a JSON rule document into the per-key pattern
// lists GenericMachine.AddPatternRule consumes, and flattening a JSON
// event document into the ordered field sequence ACFinder walks.
package jsonrule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coregx/rulematch/machine"
	"github.com/coregx/rulematch/pattern"
)

// CompileRule parses a JSON rule document (a tree of dotted keys bottoming
// out in disjunctive pattern-literal arrays) into the
// map[key][]pattern.Pattern form GenericMachine.AddPatternRule consumes.
func CompileRule(raw []byte, cfg machine.Config) (map[string][]pattern.Pattern, error) {
	if err := checkDuplicateKeys(raw, cfg.DuplicateKeyPolicy); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, &CompileError{Err: fmt.Errorf("invalid rule document: %w", err)}
	}

	out := map[string][]pattern.Pattern{}
	keyCount := 0
	if err := compileNode("", root, out, &keyCount, cfg); err != nil {
		return nil, err
	}
	return out, nil
}

func compileNode(prefix string, node interface{}, out map[string][]pattern.Pattern, keyCount *int, cfg machine.Config) error {
	obj, ok := node.(map[string]interface{})
	if !ok {
		return &CompileError{Key: prefix, Err: fmt.Errorf("expected an object, got %T", node)}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := obj[k].(type) {
		case map[string]interface{}:
			if err := compileNode(key, v, out, keyCount, cfg); err != nil {
				return err
			}
		case []interface{}:
			pats, err := compileDisjunction(key, v)
			if err != nil {
				return err
			}
			*keyCount++
			if *keyCount > cfg.MaxKeysPerRule {
				return &CompileError{Key: key, Err: fmt.Errorf("rule exceeds %d keys", cfg.MaxKeysPerRule)}
			}
			out[key] = pats
		default:
			return &CompileError{Key: key, Err: fmt.Errorf("leaf value must be an array of pattern literals, got %T", obj[k])}
		}
	}
	return nil
}

// compileDisjunction compiles one dotted key's OR'd pattern-literal list.
func compileDisjunction(key string, items []interface{}) ([]pattern.Pattern, error) {
	pats := make([]pattern.Pattern, 0, len(items))
	for _, item := range items {
		p, err := compileLiteral(key, item)
		if err != nil {
			return nil, err
		}
		pats = append(pats, p)
	}
	return pats, nil
}

func compileLiteral(key string, item interface{}) (pattern.Pattern, error) {
	switch v := item.(type) {
	case string:
		return pattern.NewExact(quote(v)), nil
	case json.Number:
		return pattern.NewExact([]byte(v.String())), nil
	case bool:
		return pattern.NewExact([]byte(fmt.Sprintf("%t", v))), nil
	case map[string]interface{}:
		return compilePatternObject(key, v)
	default:
		return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("unsupported pattern literal %#v", item)}
	}
}

func compilePatternObject(key string, obj map[string]interface{}) (pattern.Pattern, error) {
	if len(obj) != 1 {
		return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("pattern object must have exactly one field, got %d", len(obj))}
	}
	for field, raw := range obj {
		switch field {
		case "prefix":
			s, err := stringField(key, field, raw)
			if err != nil {
				return pattern.Pattern{}, err
			}
			return pattern.NewPrefix(append([]byte{'"'}, []byte(s)...)), nil
		case "suffix":
			s, err := stringField(key, field, raw)
			if err != nil {
				return pattern.Pattern{}, err
			}
			return pattern.NewSuffix(append([]byte(s), '"')), nil
		case "equals-ignore-case":
			s, err := stringField(key, field, raw)
			if err != nil {
				return pattern.Pattern{}, err
			}
			return pattern.NewEqualsIgnoreCase(quote(s)), nil
		case "wildcard":
			s, err := stringField(key, field, raw)
			if err != nil {
				return pattern.Pattern{}, err
			}
			return pattern.NewWildcard(wildcardBytes(s)), nil
		case "exists":
			b, ok := raw.(bool)
			if !ok {
				return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("exists requires a boolean, got %T", raw)}
			}
			if b {
				return pattern.NewExists(), nil
			}
			return pattern.NewAbsent(), nil
		case "numeric":
			items, ok := raw.([]interface{})
			if !ok {
				return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("numeric requires an array, got %T", raw)}
			}
			return compileNumeric(key, items)
		case "cidr":
			s, err := stringField(key, field, raw)
			if err != nil {
				return pattern.Pattern{}, err
			}
			p, err := cidrRangePattern(s)
			if err != nil {
				return pattern.Pattern{}, &CompileError{Key: key, Err: err}
			}
			return p, nil
		case "anything-but":
			return compileAnythingBut(key, raw)
		default:
			return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("unrecognized pattern field %q", field)}
		}
	}
	panic("unreachable")
}

func compileAnythingBut(key string, raw interface{}) (pattern.Pattern, error) {
	switch v := raw.(type) {
	case map[string]interface{}:
		if len(v) != 1 {
			return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("anything-but object must have exactly one field, got %d", len(v))}
		}
		for field, inner := range v {
			switch field {
			case "prefix":
				s, err := stringField(key, field, inner)
				if err != nil {
					return pattern.Pattern{}, err
				}
				return pattern.NewAnythingButPrefix(append([]byte{'"'}, []byte(s)...)), nil
			case "suffix":
				s, err := stringField(key, field, inner)
				if err != nil {
					return pattern.Pattern{}, err
				}
				return pattern.NewAnythingButSuffix(append([]byte(s), '"')), nil
			case "equals-ignore-case":
				values, err := anythingButValues(key, inner)
				if err != nil {
					return pattern.Pattern{}, err
				}
				return pattern.NewAnythingButIgnoreCase(values), nil
			default:
				return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("unrecognized anything-but field %q", field)}
			}
		}
		panic("unreachable")
	default:
		values, numeric, err := anythingButScalarSet(key, raw)
		if err != nil {
			return pattern.Pattern{}, err
		}
		return pattern.NewAnythingBut(values, numeric), nil
	}
}

// anythingButScalarSet accepts either a single scalar or an array of
// scalars, all of the same kind (string or number), as required by the
// "all values in an AnythingBut pattern share one next-name-state"
// invariant (a mixed set would need two incompatible encodings to share
// one chain).
func anythingButScalarSet(key string, raw interface{}) (values [][]byte, numeric bool, err error) {
	items, ok := raw.([]interface{})
	if !ok {
		items = []interface{}{raw}
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	_, firstIsNumber := items[0].(json.Number)
	for i, item := range items {
		switch v := item.(type) {
		case json.Number:
			if !firstIsNumber {
				return nil, false, &CompileError{Key: key, Err: fmt.Errorf("anything-but value %d mixes numbers and strings", i)}
			}
			enc, err := encodeComparableNumber(v.String())
			if err != nil {
				return nil, false, &CompileError{Key: key, Err: err}
			}
			values = append(values, []byte(enc))
		case string:
			if firstIsNumber {
				return nil, false, &CompileError{Key: key, Err: fmt.Errorf("anything-but value %d mixes numbers and strings", i)}
			}
			values = append(values, quote(v))
		default:
			return nil, false, &CompileError{Key: key, Err: fmt.Errorf("unsupported anything-but value %#v", item)}
		}
	}
	return values, firstIsNumber, nil
}

func anythingButValues(key string, raw interface{}) ([][]byte, error) {
	items, ok := raw.([]interface{})
	if !ok {
		items = []interface{}{raw}
	}
	out := make([][]byte, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &CompileError{Key: key, Err: fmt.Errorf("anything-but equals-ignore-case requires strings, got %#v", item)}
		}
		out = append(out, quote(s))
	}
	return out, nil
}

var numericSentinelLow = strings.Repeat("0", numericWidth)
var numericSentinelHigh = strings.Repeat("F", numericWidth)

// compileNumeric parses an operator/value pair list (e.g. [">",0,"<=",5])
// into a NumericEq or NumericRange pattern.
func compileNumeric(key string, items []interface{}) (pattern.Pattern, error) {
	if len(items) == 0 || len(items)%2 != 0 || len(items) > 4 {
		return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("numeric requires 2 or 4 elements (operator, value pairs), got %d", len(items))}
	}
	if len(items) == 2 {
		op, ok := items[0].(string)
		if ok && op == "=" {
			n, ok := items[1].(json.Number)
			if !ok {
				return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("numeric value must be a number, got %#v", items[1])}
			}
			enc, err := encodeComparableNumber(n.String())
			if err != nil {
				return pattern.Pattern{}, &CompileError{Key: key, Err: err}
			}
			return pattern.NewNumericEq([]byte(enc)), nil
		}
	}

	bottom, top := numericSentinelLow, numericSentinelHigh
	openBottom, openTop := false, false
	haveLower, haveUpper := false, false

	for i := 0; i < len(items); i += 2 {
		op, ok := items[i].(string)
		if !ok {
			return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("numeric operator must be a string, got %#v", items[i])}
		}
		n, ok := items[i+1].(json.Number)
		if !ok {
			return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("numeric value must be a number, got %#v", items[i+1])}
		}
		enc, err := encodeComparableNumber(n.String())
		if err != nil {
			return pattern.Pattern{}, &CompileError{Key: key, Err: err}
		}
		switch op {
		case ">":
			bottom, openBottom, haveLower = enc, true, true
		case ">=":
			bottom, openBottom, haveLower = enc, false, true
		case "<":
			top, openTop, haveUpper = enc, true, true
		case "<=":
			top, openTop, haveUpper = enc, false, true
		default:
			return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("unrecognized numeric operator %q", op)}
		}
	}
	if !haveLower && !haveUpper {
		return pattern.Pattern{}, &CompileError{Key: key, Err: fmt.Errorf("numeric range needs at least one bound")}
	}
	return pattern.NewNumericRange([]byte(bottom), []byte(top), openBottom, openTop, false), nil
}

func stringField(key, field string, raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", &CompileError{Key: key, Err: fmt.Errorf("%s requires a string, got %T", field, raw)}
	}
	return s, nil
}

func quote(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	out = append(out, []byte(s)...)
	out = append(out, '"')
	return out
}

// wildcardBytes applies the quote-boundary convention a leading/trailing
// '*' exempts: a star at either end already absorbs the adjoining quote
// byte during traversal, so only a non-star boundary gets an explicit
// quote appended.
func wildcardBytes(s string) []byte {
	if strings.Trim(s, "*") == "" {
		return []byte(s)
	}
	var buf bytes.Buffer
	if !strings.HasPrefix(s, "*") {
		buf.WriteByte('"')
	}
	buf.WriteString(s)
	if !strings.HasSuffix(s, "*") {
		buf.WriteByte('"')
	}
	return buf.Bytes()
}

// checkDuplicateKeys enforces machine.RejectDuplicateKey by walking the
// raw token stream: by the time a JSON object decodes into a Go map, a
// repeated key has already silently collapsed to its last occurrence,
// which is exactly machine.OverrideDuplicateKey's semantics and requires
// no extra code — only the reject policy needs this pre-decode pass.
func checkDuplicateKeys(data []byte, policy machine.DuplicateKeyPolicy) error {
	if policy != machine.RejectDuplicateKey {
		return nil
	}

	type frame struct {
		isObject      bool
		seen          map[string]bool
		awaitingValue bool
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []*frame

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &CompileError{Err: err}
		}

		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				f := &frame{isObject: d == '{'}
				if f.isObject {
					f.seen = map[string]bool{}
				}
				stack = append(stack, f)
			case '}', ']':
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					stack[len(stack)-1].awaitingValue = false
				}
			}
			continue
		}

		if len(stack) == 0 {
			continue
		}
		top := stack[len(stack)-1]
		if top.isObject && !top.awaitingValue {
			key, _ := tok.(string)
			if top.seen[key] {
				return &CompileError{Key: key, Err: machine.ErrDuplicateKey}
			}
			top.seen[key] = true
			top.awaitingValue = true
		} else {
			top.awaitingValue = false
		}
	}
	return nil
}
