package core

import (
	"fmt"
	"strings"
)

// Stage is one named check in the role grant pipeline.
type Stage string

const (
	StageVerified Stage = "verified"
	StageLinked   Stage = "linked"
	StageEntitled Stage = "entitled"
)

// DefaultStages checks verification first so unverified members never reach
// the entitlement lookup.
func DefaultStages() []Stage {
	return []Stage{StageVerified, StageLinked, StageEntitled}
}

// ParseStages parses a comma separated stage list such as "linked,entitled,verified".
// An empty string yields DefaultStages.
func ParseStages(s string) ([]Stage, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultStages(), nil
	}
	var out []Stage
	for _, part := range strings.Split(s, ",") {
		p := Stage(strings.ToLower(strings.TrimSpace(part)))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if err := ValidateStages(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateStages requires linked and entitled, linked before entitled, no
// unknown or repeated stages. verified is optional.
func ValidateStages(stages []Stage) error {
	seen := map[Stage]int{}
	for i, st := range stages {
		switch st {
		case StageVerified, StageLinked, StageEntitled:
		default:
			return fmt.Errorf("unknown grant stage %q", st)
		}
		if _, dup := seen[st]; dup {
			return fmt.Errorf("grant stage %q listed twice", st)
		}
		seen[st] = i
	}
	li, okL := seen[StageLinked]
	ei, okE := seen[StageEntitled]
	if !okL || !okE {
		return fmt.Errorf("grant stages must include %q and %q", StageLinked, StageEntitled)
	}
	if li > ei {
		return fmt.Errorf("grant stage %q needs %q before it", StageEntitled, StageLinked)
	}
	return nil
}

func hasStage(stages []Stage, want Stage) bool {
	for _, s := range stages {
		if s == want {
			return true
		}
	}
	return false
}
