/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

// Alias is one replacement from an alias field such as "browser".
// Key "." stands for the package's own main entry.
type Alias struct {
	Key string

	// Target is the replacement request. Empty when Ignored.
	Target string

	// Ignored is set by a false value: the request resolves to nothing.
	Ignored bool
}

func newAliases(root *Target) []Alias {
	switch root.Kind {
	case TargetPath:
		return []Alias{{Key: ".", Target: root.Path}}
	case TargetBool:
		if !root.Bool {
			return []Alias{{Key: ".", Ignored: true}}
		}
	case TargetConditions:
		var aliases []Alias
		for _, c := range root.Conditions {
			switch c.Target.Kind {
			case TargetPath:
				aliases = append(aliases, Alias{Key: c.Name, Target: c.Target.Path})
			case TargetBool:
				if !c.Target.Bool {
					aliases = append(aliases, Alias{Key: c.Name, Ignored: true})
				}
			}
		}
		return aliases
	}
	return nil
}
