package rang

type Team struct {
	ID              TeamID
	TricksThisRound int
	Score           int
}

func (t *Team) resetForNewRound() {
	t.TricksThisRound = 0
}
