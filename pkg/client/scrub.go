package client

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// secretFields are write-only fields that must never be overwritten with a blank value.
var secretFields = map[string]struct{}{
	"password":  {},
	"api_hash":  {},
	"api_key":   {},
	"bot_token": {},
	"secret":    {},
	"token":     {},
}

// scrubSecrets drops secret fields whose value is an empty string from a JSON object body.
// Non-object bodies are returned unchanged.
func scrubSecrets(body interface{}) (interface{}, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return body, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	for name := range secretFields {
		if v, ok := fields[name]; ok {
			if s, isString := v.(string); isString && s == "" {
				delete(fields, name)
			}
		}
	}
	return fields, nil
}

// DropBlankSecrets sets secret *string fields of the struct v points to back to nil
// when they point at an empty string, so a blank secret reads as "unchanged" to
// validation as well as on the wire. Other values are left alone.
func DropBlankSecrets(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name, _, _ := strings.Cut(rt.Field(i).Tag.Get("json"), ",")
		if _, ok := secretFields[name]; !ok {
			continue
		}
		f := rv.Field(i)
		if !f.CanSet() || f.Kind() != reflect.Ptr || f.IsNil() || f.Elem().Kind() != reflect.String {
			continue
		}
		if f.Elem().String() == "" {
			f.Set(reflect.Zero(f.Type()))
		}
	}
}
