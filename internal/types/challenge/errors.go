package challenge

import (
	"errors"
	"net/http"
)

var (
	ErrChallengeNotFound     = errors.New("challenge not found")
	ErrParticipationNotFound = errors.New("no participation found for this challenge")
	ErrInvalidDifficulty     = errors.New("invalid difficulty code")
	ErrInvalidGoalType       = errors.New("invalid goal type")
	ErrRuleNotFound          = errors.New("no rule configured for this difficulty")
	ErrJoinNotAllowed        = errors.New("joining this challenge is not allowed")
	ErrAlreadyJoined         = errors.New("challenge already joined")
	ErrAlreadyLeft           = errors.New("challenge already left")
	ErrInvalidMonth          = errors.New("month must be formatted as yyyy-MM")
)

type errorKind struct {
	err    error
	code   string
	status int
}

// Order matters: ErrJoinNotAllowed wraps ErrRuleNotFound on the join path.
var errorKinds = []errorKind{
	{ErrChallengeNotFound, "CHALLENGE_NOT_FOUND", http.StatusNotFound},
	{ErrParticipationNotFound, "CHALLENGE_JOIN_NOT_FOUND", http.StatusNotFound},
	{ErrInvalidDifficulty, "CHALLENGE_INVALID_DIFFICULTY", http.StatusBadRequest},
	{ErrInvalidMonth, "CHALLENGE_INVALID_MONTH_PARAM", http.StatusBadRequest},
	{ErrJoinNotAllowed, "CHALLENGE_JOIN_NOT_ALLOWED", http.StatusBadRequest},
	{ErrRuleNotFound, "CHALLENGE_RULE_NOT_FOUND", http.StatusBadRequest},
	{ErrAlreadyJoined, "CHALLENGE_ALREADY_JOINED", http.StatusConflict},
	{ErrAlreadyLeft, "CHALLENGE_ALREADY_LEFT", http.StatusConflict},
}

// CodeOf returns the machine-readable code and HTTP status for err.
// Anything outside the taxonomy is an internal failure.
func CodeOf(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.code, k.status
		}
	}
	return "INTERNAL_SERVER_ERROR", http.StatusInternalServerError
}
