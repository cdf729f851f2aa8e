package grass

import "fmt"

// Policy selects how the field is split into chunks.
type Policy string

const (
	// PolicyNone builds one full-detail chunk covering the field and leaves
	// distance fading to the shader.
	PolicyNone Policy = "none"
	// PolicyGrid streams fixed-size grid chunks within the view radius of
	// the anchor, each baked at the tier for its distance.
	PolicyGrid Policy = "grid"
	// PolicyRings builds one chunk per concentric LOD ring around the anchor.
	PolicyRings Policy = "rings"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyNone, PolicyGrid, PolicyRings:
		return true
	}
	return false
}

// ParsePolicy parses a policy name. The empty string selects PolicyRings.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return PolicyRings, nil
	}
	p := Policy(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown chunking policy %q", ErrInvalidOptions, s)
	}
	return p, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Policies lists every policy in cycling order.
var Policies = []Policy{PolicyNone, PolicyGrid, PolicyRings}

// Next returns the policy after p in Policies, wrapping around.
func (p Policy) Next() Policy {
	for i, q := range Policies {
		if q == p {
			return Policies[(i+1)%len(Policies)]
		}
	}
	return PolicyRings
}
