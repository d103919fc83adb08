package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes an injection pattern detected in a
// query parameter value.
type InjectionCheckResult struct {
	Fingerprint string
	ParamIndex  int
	ParamValue  any
}

// CheckParameters screens positional parameter values for SQL injection
// patterns with libinjection. Only string values are checked; numbers
// and booleans cannot carry injection payloads. Returns nil when all
// parameters are clean, otherwise the first offending parameter.
func CheckParameters(params []any) *InjectionCheckResult {
	for i, value := range params {
		strValue, ok := value.(string)
		if !ok {
			continue
		}
		isSQLi, fingerprint := libinjection.IsSQLi(strValue)
		if isSQLi {
			return &InjectionCheckResult{
				Fingerprint: string(fingerprint),
				ParamIndex:  i,
				ParamValue:  value,
			}
		}
	}
	return nil
}
