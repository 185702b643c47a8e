package game

import "errors"

// Validation errors: the request itself is malformed. Rejected before any
// state is touched.
var (
	ErrEmptyName       = errors.New("player name is required")
	ErrEmptyCard       = errors.New("card text is required")
	ErrUnknownPlayer   = errors.New("player not in game")
	ErrUnknownProvider = errors.New("unknown oracle provider")
)

// Precondition errors: the operation is not legal in the current phase or
// for the current role. Surfaced to the caller without mutating state.
var (
	ErrNotYourTurnToSubmit = errors.New("the judge does not submit a card")
	ErrAlreadySubmitted    = errors.New("player already submitted this round")
	ErrCardNotInHand       = errors.New("card is not in the player's hand")
	ErrSubmissionsClosed   = errors.New("round is not accepting submissions")
	ErrNotJudgingPhase     = errors.New("round is not in the judging phase")
	ErrUnknownSubmitter    = errors.New("winner has no submission this round")
	ErrNoValidSubmissions  = errors.New("no submissions to judge")
	ErrNoActiveRound       = errors.New("game has no active round")
	ErrGameNotInLobby      = errors.New("game has already started")
	ErrGameCompleted       = errors.New("game is over")
	ErrGameFull            = errors.New("game is full")
	ErrPlayerAlreadyJoined = errors.New("player already in game")
	ErrNotEnoughPlayers    = errors.New("not enough players to start")
)

// IsPrecondition reports whether err is one of the phase/role precondition
// errors, which callers surface as a rejected action rather than a fault.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrNotYourTurnToSubmit,
		ErrAlreadySubmitted,
		ErrCardNotInHand,
		ErrSubmissionsClosed,
		ErrNotJudgingPhase,
		ErrUnknownSubmitter,
		ErrNoValidSubmissions,
		ErrNoActiveRound,
		ErrGameNotInLobby,
		ErrGameCompleted,
		ErrGameFull,
		ErrPlayerAlreadyJoined,
		ErrNotEnoughPlayers,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
