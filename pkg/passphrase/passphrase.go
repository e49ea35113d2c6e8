package passphrase

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultDelimiter separates the accepted answers of a OneOf policy.
const DefaultDelimiter = ","

var (
	ErrUnknownKind   = errors.New("unknown passphrase policy")
	ErrMissingAnswer = errors.New("passphrase answer is required")
)

// Kind selects how a submitted passphrase is compared to the configured
// answer. All kinds are case-insensitive.
type Kind int

const (
	// Exact accepts input equal to the answer.
	Exact Kind = iota
	// Substring accepts input that contains the answer anywhere.
	Substring
	// OneOf accepts input equal to any answer in a delimited list.
	OneOf
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Substring:
		return "substring"
	case OneOf:
		return "oneof"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a policy name as it appears in configuration.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return Exact, nil
	case "substring", "contains":
		return Substring, nil
	case "oneof", "one-of", "multi":
		return OneOf, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Policy checks submitted passphrases. The zero value rejects everything.
type Policy struct {
	kind    Kind
	answers []string
}

// New creates a policy of the given kind. For OneOf the answer is split on
// delimiter (DefaultDelimiter when empty), for every other kind it is used
// whole.
func New(kind Kind, answer string, delimiter string) (Policy, error) {
	var answers []string
	switch kind {
	case Exact, Substring:
		if answer != "" {
			answers = []string{strings.ToLower(answer)}
		}
	case OneOf:
		if delimiter == "" {
			delimiter = DefaultDelimiter
		}
		for _, a := range strings.Split(answer, delimiter) {
			a = strings.TrimSpace(a)
			if a != "" {
				answers = append(answers, strings.ToLower(a))
			}
		}
	default:
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if len(answers) == 0 {
		return Policy{}, ErrMissingAnswer
	}
	return Policy{kind: kind, answers: answers}, nil
}

// Kind returns the comparison the policy performs.
func (p Policy) Kind() Kind {
	return p.kind
}

// Match reports whether input is an accepted passphrase.
func (p Policy) Match(input string) bool {
	if input == "" {
		return false
	}
	input = strings.ToLower(input)
	for _, a := range p.answers {
		switch p.kind {
		case Substring:
			if strings.Contains(input, a) {
				return true
			}
		default:
			if input == a {
				return true
			}
		}
	}
	return false
}
