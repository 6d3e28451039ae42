package rang

import "errors"

var (
	ErrGameEnded       = errors.New("game already ended")
	ErrOutOfTurn       = errors.New("action out of turn")
	ErrNotSelector     = errors.New("not the trump selector")
	ErrCardNotHeld     = errors.New("card not in hand")
	ErrMustFollowSuit  = errors.New("must follow the lead suit")
	ErrSeatsFull       = errors.New("all seats are taken")
	ErrTeamFull        = errors.New("team already has two players")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNeedFourPlayers = errors.New("game requires exactly 4 players")
	ErrUnbalancedTeams = errors.New("teams must have two players each")
)

type InvalidPhaseError string

func (e InvalidPhaseError) Error() string { return "invalid phase: " + string(e) }

func ErrInvalidPhase(msg string) error { return InvalidPhaseError(msg) }
