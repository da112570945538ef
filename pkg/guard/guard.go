// Package guard decides whether a query may run in the read-only learning
// sandbox.
//
// The check is a keyword heuristic over the raw text, not a SQL parser and
// not a security boundary. Keywords match as substrings anywhere in the
// query, including identifiers, string literals and comments, so
// "SELECT * FROM updates;" is rejected because UPDATES contains UPDATE.
package guard

import (
	"strings"

	"github.com/gear6io/sqllab/pkg/errors"
)

// Rejection reasons shown to the learner verbatim
const (
	ReasonNotSelect        = "Only SELECT queries are allowed in learning mode"
	ReasonMissingSemicolon = "Query should end with a semicolon (;)"
	reasonKeywordPrefix    = "Query contains dangerous keyword: "
)

// denylist is checked in order, first match wins
var denylist = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE", "TRUNCATE",
}

// Verdict is the outcome of Validate. The zero value is a rejection with no
// reason and should not be constructed directly.
type Verdict struct {
	allowed bool
	reason  string
	keyword string
}

// Allowed returns the accepting verdict
func Allowed() Verdict {
	return Verdict{allowed: true}
}

// Rejected returns a rejecting verdict carrying reason
func Rejected(reason string) Verdict {
	return Verdict{reason: reason}
}

func (v Verdict) Allowed() bool   { return v.allowed }
func (v Verdict) Reason() string  { return v.reason }
func (v Verdict) Keyword() string { return v.keyword }

func (v Verdict) String() string {
	if v.allowed {
		return "allowed"
	}
	return "rejected: " + v.reason
}

// Err converts a rejection into a coded error. It returns nil when allowed.
func (v Verdict) Err() error {
	if v.allowed {
		return nil
	}
	err := errors.New(ErrQueryRejected, v.reason, nil)
	if v.keyword != "" {
		err.AddContext("keyword", v.keyword)
	}
	return err
}

// Denylist returns the ordered keyword list
func Denylist() []string {
	out := make([]string, len(denylist))
	copy(out, denylist)
	return out
}

// Validate classifies query as allowed or rejected
func Validate(query string) Verdict {
	q := strings.TrimSpace(query)
	qu := strings.ToUpper(q)

	for _, keyword := range denylist {
		if strings.Contains(qu, keyword) {
			return Verdict{reason: reasonKeywordPrefix + keyword, keyword: keyword}
		}
	}

	if !strings.HasPrefix(qu, "SELECT") {
		return Rejected(ReasonNotSelect)
	}

	if !strings.HasSuffix(q, ";") {
		return Rejected(ReasonMissingSemicolon)
	}

	return Allowed()
}
