package codenames

import "errors"

// RuleError is a participant action that violates a game rule. Rule
// errors are reported privately to the acting player as plain text and
// never logged or escalated; the game state is left untouched.
type RuleError string

func (e RuleError) Error() string { return string(e) }

const (
	ErrNotYourTurn      = RuleError("it is not your turn")
	ErrRoleTaken        = RuleError("that role is already taken by someone else")
	ErrNotEnoughPlayers = RuleError("not enough players to start the game")
	ErrInvalidNumber    = RuleError("the clue number must be a non-negative whole number")
	ErrNoGuessesYet     = RuleError("you must choose at least one card each turn")
	ErrGameFinished     = RuleError("this game has already ended; choose the assassin card if you would like a rematch")
	ErrGameStarted      = RuleError("this game has already started")
)

// IsRuleError reports whether err is (or wraps) a participant-facing
// rule violation. Everything else is a system error: logged with
// context, escalated to the operator, and shown to the player only as a
// generic failure.
func IsRuleError(err error) bool {
	var re RuleError
	return errors.As(err, &re)
}

var (
	ErrGameNotFound    = errors.New("codenames: game not found")
	ErrMessageNotFound = errors.New("codenames: message not bound to any game")
	ErrPlayerNotFound  = errors.New("codenames: player not found")
	// ErrVersionConflict means a save raced with another writer: the
	// stored document changed since it was loaded.
	ErrVersionConflict = errors.New("codenames: stored document version conflict")
)
