package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// Code names a failure as "<package>.<failure>", for example
// "sandbox.table_not_found". The package half is the sqllab package that
// declares it; API clients match on the full string.
type Code struct {
	pkg  string
	name string
}

// CommonInternal marks an error that carried no code of its own
var CommonInternal = MustNewCode("common.internal")

var segment = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewCode parses s into a Code
func NewCode(s string) (Code, error) {
	pkg, name, ok := strings.Cut(s, ".")
	if !ok || !segment.MatchString(pkg) || !segment.MatchString(name) {
		return Code{}, fmt.Errorf("code %q must look like package.failure_name", s)
	}
	if strings.Contains(s, "err") {
		return Code{}, fmt.Errorf("code %q repeats err, name what failed instead", s)
	}
	return Code{pkg: pkg, name: name}, nil
}

// MustNewCode is NewCode for package-level code declarations
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string {
	if c.pkg == "" {
		return ""
	}
	return c.pkg + "." + c.name
}

func (c Code) Equals(other Code) bool {
	return c == other
}
