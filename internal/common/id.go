package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// cdrIDPattern accepts "CDR0000012345", "cdr12345", "12345" and fragment
// suffixes such as "CDR0000012345#_3".
var cdrIDPattern = regexp.MustCompile(`^(?i:cdr)?0*(\d+)(?:#.*)?$`)

// ExtractID returns the integer form of a CDR document identifier.
// Both the canonical string and the integer (as int or string) are accepted.
func ExtractID(id interface{}) (int, error) {
	switch v := id.(type) {
	case int:
		if v <= 0 {
			return 0, fmt.Errorf("invalid CDR id %d", v)
		}
		return v, nil
	case int64:
		return ExtractID(int(v))
	case string:
		match := cdrIDPattern.FindStringSubmatch(strings.TrimSpace(v))
		if match == nil {
			return 0, fmt.Errorf("invalid CDR id %q", v)
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid CDR id %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported CDR id type %T", id)
	}
}

// CanonicalID formats an integer id as "CDR" plus ten zero-padded digits.
func CanonicalID(id int) string {
	return fmt.Sprintf("CDR%010d", id)
}

// NormalizeID converts any accepted id form to the canonical form.
func NormalizeID(id interface{}) (string, error) {
	n, err := ExtractID(id)
	if err != nil {
		return "", err
	}
	return CanonicalID(n), nil
}

// NewRunID generates the identifier used to group one run's artifacts.
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
