/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TargetKind tags the variant held by a Target.
type TargetKind int

const (
	// TargetInvalid is any JSON value that is not a usable target.
	TargetInvalid TargetKind = iota
	// TargetPath is a string target.
	TargetPath
	// TargetConditions is an object of condition names, in declaration order.
	TargetConditions
	// TargetArray is an ordered list of alternatives.
	TargetArray
	// TargetNull excludes the matched subpath.
	TargetNull
	// TargetBool is a boolean, meaningful only in alias fields.
	TargetBool
)

// Condition is one entry of a condition object.
type Condition struct {
	Name   string
	Target *Target
}

// Target is a decoded export, import or alias value. Object keys keep
// their declaration order.
type Target struct {
	Kind         TargetKind
	Path         string
	Bool         bool
	Conditions   []Condition
	Alternatives []*Target
}

// decodeTarget decodes raw JSON into a Target tree without losing
// object key order.
func decodeTarget(raw json.RawMessage) (*Target, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return readTarget(dec)
}

func readTarget(dec *json.Decoder) (*Target, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case string:
		return &Target{Kind: TargetPath, Path: v}, nil
	case nil:
		return &Target{Kind: TargetNull}, nil
	case bool:
		return &Target{Kind: TargetBool, Bool: v}, nil
	case json.Number:
		return &Target{Kind: TargetInvalid}, nil
	case json.Delim:
		switch v {
		case '{':
			t := &Target{Kind: TargetConditions}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				child, err := readTarget(dec)
				if err != nil {
					return nil, err
				}
				t.Conditions = append(t.Conditions, Condition{Name: key, Target: child})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return t, nil
		case '[':
			t := &Target{Kind: TargetArray}
			for dec.More() {
				child, err := readTarget(dec)
				if err != nil {
					return nil, err
				}
				t.Alternatives = append(t.Alternatives, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
