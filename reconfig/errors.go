// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reconfig

import "errors"

// Abort codes carried by failed engine operations. They are part of the
// external contract and must stay stable across releases.
const (
	CodeNotAuthorizedAdmin             uint64 = 1
	CodeNotAValidatorOwner             uint64 = 2
	CodeNotAuthorizedOperator          uint64 = 3
	CodeNotCurrentlyMember             uint64 = 4
	CodeAlreadyMember                  uint64 = 5
	CodeReconfigurationAlreadyHappened uint64 = 6
	CodeNothingToReconfigure           uint64 = 7
)

// AbortError is returned when an operation is rejected by a precondition.
// The wrapped operation leaves no trace in state.
type AbortError struct {
	code uint64
	msg  string
}

func (e *AbortError) Error() string { return e.msg }

// Code returns the stable abort code.
func (e *AbortError) Code() uint64 { return e.code }

var (
	errNotAuthorizedAdmin             = &AbortError{CodeNotAuthorizedAdmin, "sender is not the admin"}
	errNotAValidatorOwner             = &AbortError{CodeNotAValidatorOwner, "sender owns no validator entry"}
	errNotAuthorizedOperator          = &AbortError{CodeNotAuthorizedOperator, "sender is not the delegated operator"}
	errNotCurrentlyMember             = &AbortError{CodeNotCurrentlyMember, "validator is not a member"}
	errAlreadyMember                  = &AbortError{CodeAlreadyMember, "validator is already a member"}
	errReconfigurationAlreadyHappened = &AbortError{CodeReconfigurationAlreadyHappened, "reconfiguration already happened in this block"}
	errNothingToReconfigure           = &AbortError{CodeNothingToReconfigure, "validator set is unchanged"}
)

// AbortCode extracts the abort code from err, if it carries one.
func AbortCode(err error) (uint64, bool) {
	var abort *AbortError
	if errors.As(err, &abort) {
		return abort.Code(), true
	}
	return 0, false
}
