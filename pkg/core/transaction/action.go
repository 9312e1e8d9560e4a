package transaction

import (
	"fmt"

	"github.com/mptledger/mptledger/pkg/encoding/bencodex"
)

// Dictionary keys of an encoded action.
const (
	actionTypeKey   = "type_id"
	actionValuesKey = "values"
)

// Action is an opaque operation carried by a transaction. Its semantics are
// up to the application, transactions only encode it as its type identifier
// plus a dictionary of values.
type Action interface {
	TypeID() string
	// PlainValue returns action parameters. The dictionary returned must
	// not be modified.
	PlainValue() bencodex.Dictionary
}

// ActionLoader creates an Action from its decoded form.
type ActionLoader func(typeID string, values bencodex.Dictionary) (Action, error)

// GenericAction is an Action that just keeps whatever was decoded.
type GenericAction struct {
	Type   string
	Values bencodex.Dictionary
}

// NewGenericAction creates a GenericAction, it's also the default
// ActionLoader.
func NewGenericAction(typeID string, values bencodex.Dictionary) (Action, error) {
	return &GenericAction{Type: typeID, Values: values}, nil
}

// TypeID implements the Action interface.
func (a *GenericAction) TypeID() string {
	return a.Type
}

// PlainValue implements the Action interface.
func (a *GenericAction) PlainValue() bencodex.Dictionary {
	if a.Values == nil {
		return bencodex.Dictionary{}
	}
	return a.Values
}

func encodeAction(a Action) bencodex.Dictionary {
	values := a.PlainValue()
	if values == nil {
		values = bencodex.Dictionary{}
	}
	return bencodex.Dictionary{
		bencodex.TextKey(actionTypeKey):   bencodex.Text(a.TypeID()),
		bencodex.TextKey(actionValuesKey): values,
	}
}

func decodeAction(d bencodex.Dictionary, loader ActionLoader) (Action, error) {
	var (
		typeID    string
		values    bencodex.Dictionary
		hasType   bool
		hasValues bool
	)
	for k, v := range d {
		switch string(k.Bytes()) {
		case actionTypeKey:
			s, ok := stringOf(v)
			if !ok || hasType {
				return nil, fmt.Errorf("invalid %s", actionTypeKey)
			}
			typeID, hasType = s, true
		case actionValuesKey:
			vals, ok := v.(bencodex.Dictionary)
			if !ok || hasValues {
				return nil, fmt.Errorf("invalid %s", actionValuesKey)
			}
			values, hasValues = vals, true
		default:
			return nil, fmt.Errorf("unexpected action field %s", k)
		}
	}
	if !hasType || !hasValues {
		return nil, fmt.Errorf("%s and %s are required", actionTypeKey, actionValuesKey)
	}
	return loader(typeID, values)
}

// stringOf accepts both text and byte strings since legacy encodings used
// the latter.
func stringOf(v bencodex.Value) (string, bool) {
	switch v := v.(type) {
	case bencodex.Text:
		return string(v), true
	case bencodex.Binary:
		return string(v), true
	default:
		return "", false
	}
}
