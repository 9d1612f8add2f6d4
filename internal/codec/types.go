package codec

import "fmt"

// SecretType distinguishes team-visible records from personal ones.
type SecretType int

const (
	// Shared records are visible to every project member. At most one
	// shared record may exist per environment and key name.
	Shared SecretType = iota
	// Personal records belong to one user. A personal record with the same
	// key name as a shared record overrides it for that user only.
	Personal
)

// String returns the wire representation of the type.
func (t SecretType) String() string {
	switch t {
	case Shared:
		return "shared"
	case Personal:
		return "personal"
	default:
		panic(fmt.Sprintf("unknown secret type %d", int(t)))
	}
}

// ParseSecretType converts a wire value back into a SecretType.
func ParseSecretType(s string) (SecretType, error) {
	switch s {
	case "shared":
		return Shared, nil
	case "personal":
		return Personal, nil
	default:
		return 0, fmt.Errorf("unknown secret type %q", s)
	}
}

// Environment identifies one of the project's deployment environments.
type Environment string

const (
	Dev     Environment = "dev"
	Test    Environment = "test"
	Staging Environment = "staging"
	Prod    Environment = "prod"
)

// ParseEnvironment validates a user-supplied environment name.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case Dev, Test, Staging, Prod:
		return Environment(s), nil
	default:
		return "", fmt.Errorf("unknown environment %q (expected dev, test, staging, or prod)", s)
	}
}

func (e Environment) String() string { return string(e) }
