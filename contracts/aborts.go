package contracts

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// AbortKind is the business meaning of a contract abort.
type AbortKind string

const (
	AbortUnknown               AbortKind = "unknown"
	AbortNotOrganizer          AbortKind = "not_organizer"
	AbortEventNotActive        AbortKind = "event_not_active"
	AbortEventAlreadyCompleted AbortKind = "event_already_completed"
	AbortEventNotEnded         AbortKind = "event_not_ended"
	AbortInvalidCapacity       AbortKind = "invalid_capacity"
	AbortInvalidTimestamp      AbortKind = "invalid_timestamp"
	AbortCommunityExists       AbortKind = "community_exists"
	AbortAlreadyRegistered     AbortKind = "already_registered"
	AbortEventFull             AbortKind = "event_full"
	AbortInsufficientPayment   AbortKind = "insufficient_payment"
	AbortInvalidPass           AbortKind = "invalid_pass"
	AbortAlreadyCheckedIn      AbortKind = "already_checked_in"
	AbortNotCheckedIn          AbortKind = "not_checked_in"
	AbortAlreadyClaimed        AbortKind = "already_claimed"
	AbortNotEligible           AbortKind = "not_eligible"
	AbortAirdropExpired        AbortKind = "airdrop_expired"
	AbortAccessDenied          AbortKind = "access_denied"
	AbortProfileExists         AbortKind = "profile_exists"
)

// AbortError is a transaction that executed and aborted inside Move.
type AbortError struct {
	Module   string
	Function string
	Code     uint64
	Kind     AbortKind
	Raw      string
}

func (e *AbortError) Error() string {
	loc := e.Module
	if e.Function != "" {
		loc += "::" + e.Function
	}
	if loc == "" {
		return "transaction failed: " + e.Raw
	}
	return fmt.Sprintf("contract abort in %s (code %d, %s)", loc, e.Code, e.Kind)
}

type abortKey struct {
	module   string
	function string
	code     uint64
}

// abortKinds maps (module, code) to a kind. An entry with a function name
// overrides the module-wide entry for that function only.
var abortKinds = map[abortKey]AbortKind{
	{"event_management", "", 1}: AbortNotOrganizer,
	{"event_management", "", 2}: AbortEventNotActive,
	{"event_management", "", 3}: AbortEventAlreadyCompleted,
	{"event_management", "", 4}: AbortInvalidCapacity,
	{"event_management", "", 5}: AbortInvalidTimestamp,
	{"event_management", "", 6}: AbortProfileExists,

	{"event_management", "complete_event", 3}: AbortEventNotEnded,

	{"identity_access", "", 1}: AbortEventNotActive,
	{"identity_access", "", 2}: AbortAlreadyRegistered,
	{"identity_access", "", 3}: AbortEventFull,
	{"identity_access", "", 4}: AbortInsufficientPayment,

	{"attendance_verification", "", 1}: AbortNotOrganizer,
	{"attendance_verification", "", 2}: AbortInvalidPass,
	{"attendance_verification", "", 3}: AbortAlreadyCheckedIn,
	{"attendance_verification", "", 4}: AbortNotCheckedIn,

	{"airdrop_distribution", "", 1}: AbortNotOrganizer,
	{"airdrop_distribution", "", 2}: AbortAlreadyClaimed,
	{"airdrop_distribution", "", 3}: AbortNotEligible,
	{"airdrop_distribution", "", 4}: AbortAirdropExpired,

	{"community_access", "", 1}: AbortNotOrganizer,
	{"community_access", "", 2}: AbortAccessDenied,
	{"community_access", "", 7}: AbortCommunityExists,
}

// ClassifyAbort maps a module, function and code to a kind.
func ClassifyAbort(module, function string, code uint64) AbortKind {
	if k, ok := abortKinds[abortKey{module, function, code}]; ok {
		return k
	}
	if k, ok := abortKinds[abortKey{module, "", code}]; ok {
		return k
	}
	return AbortUnknown
}

var (
	abortModuleRe   = regexp.MustCompile(`name:\s*Identifier\("([^"]+)"\)`)
	abortFunctionRe = regexp.MustCompile(`function_name:\s*Some\("([^"]+)"\)`)
	abortCodeRe     = regexp.MustCompile(`MoveAbort\(.*\},\s*(\d+)\)`)
)

// ParseAbort turns an execution status error into an AbortError. Errors that
// are not Move aborts come back with Kind AbortUnknown and no module.
func ParseAbort(status string) *AbortError {
	e := &AbortError{Kind: AbortUnknown, Raw: status}
	m := abortCodeRe.FindStringSubmatch(status)
	if m == nil {
		return e
	}
	code, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return e
	}
	e.Code = code
	if mm := abortModuleRe.FindStringSubmatch(status); mm != nil {
		e.Module = mm[1]
	}
	if fm := abortFunctionRe.FindStringSubmatch(status); fm != nil {
		e.Function = fm[1]
	}
	e.Kind = ClassifyAbort(e.Module, e.Function, e.Code)
	return e
}

// AbortKindOf returns the kind of the first AbortError in err's chain.
func AbortKindOf(err error) (AbortKind, bool) {
	var ae *AbortError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
