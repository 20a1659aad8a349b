package jsonrule

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/coregx/rulematch/event"
)

// FlattenEvent parses a JSON event document into the ordered,
// dotted-path field sequence ACFinder matches against: strings keep
// their surrounding quotes, numbers keep their exact decimal text (via
// json.Number, avoiding float round-trip loss), and every array assigns
// its elements a fresh array id so CheckConsistency can reject a match
// assembled from two different elements of the same array.
func FlattenEvent(raw []byte) (*event.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, &FlattenError{Path: "$", Err: err}
	}
	obj, ok := root.(map[string]interface{})
	if !ok {
		return nil, &FlattenError{Path: "$", Err: fmt.Errorf("event document must be a JSON object, got %T", root)}
	}

	fl := &flattener{}
	if err := fl.walkObject("", obj, event.ArrayMembership{}); err != nil {
		return nil, err
	}
	return event.New(fl.fields), nil
}

type flattener struct {
	fields      []event.Field
	nextArrayID int
}

func (fl *flattener) walkObject(prefix string, obj map[string]interface{}, membership event.ArrayMembership) error {
	for k, v := range obj {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if err := fl.walk(path, v, membership); err != nil {
			return err
		}
	}
	return nil
}

func (fl *flattener) walk(path string, node interface{}, membership event.ArrayMembership) error {
	switch v := node.(type) {
	case map[string]interface{}:
		return fl.walkObject(path, v, membership)
	case []interface{}:
		arrayID := fl.nextArrayID
		fl.nextArrayID++
		for idx, elem := range v {
			if err := fl.walk(path, elem, extendMembership(membership, arrayID, idx)); err != nil {
				return err
			}
		}
		return nil
	case string:
		fl.fields = append(fl.fields, event.Field{Name: path, Value: string(quote(v)), ArrayMembership: membership})
		return nil
	case json.Number:
		fl.fields = append(fl.fields, event.Field{Name: path, Value: v.String(), ArrayMembership: membership})
		return nil
	case bool:
		fl.fields = append(fl.fields, event.Field{Name: path, Value: fmt.Sprintf("%t", v), ArrayMembership: membership})
		return nil
	case nil:
		fl.fields = append(fl.fields, event.Field{Name: path, Value: "null", ArrayMembership: membership})
		return nil
	default:
		return &FlattenError{Path: path, Err: fmt.Errorf("unsupported value type %T", node)}
	}
}

func extendMembership(m event.ArrayMembership, arrayID, idx int) event.ArrayMembership {
	out := make(event.ArrayMembership, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[arrayID] = idx
	return out
}
