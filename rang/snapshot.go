package rang

import "github.com/raoakhan/RangMaster/card"

type PlayerSnapshot struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	Seat      int         `json:"seat"`
	Team      int         `json:"team"`
	Connected bool        `json:"connected"`
	Ready     bool        `json:"ready"`
	CardCount int         `json:"cardCount"`
	Hand      []card.Card `json:"hand,omitempty"`
}

type TeamSnapshot struct {
	ID              int `json:"id"`
	TricksThisRound int `json:"tricksThisRound"`
	Score           int `json:"score"`
}

type PlaySnapshot struct {
	Seat     int       `json:"seat"`
	PlayerID string    `json:"playerId"`
	Card     card.Card `json:"card"`
}

type RoundSnapshot struct {
	Number     int    `json:"number"`
	Trump      string `json:"trump"`
	TeamTricks [2]int `json:"teamTricks"`
	TeamScores [2]int `json:"teamScores"`
}

// Snapshot is the wire view of a game. SnapshotFor strips every hand
// except the viewer's down to a card count.
type Snapshot struct {
	Phase         string           `json:"phase"`
	Round         int              `json:"round"`
	MaxRounds     int              `json:"maxRounds"`
	WinningScore  int              `json:"winningScore"`
	TrumpSuit     string           `json:"trumpSuit,omitempty"`
	TrumpSelector int              `json:"trumpSelector"`
	CurrentTurn   int              `json:"currentTurn"`
	LeadSuit      string           `json:"leadSuit,omitempty"`
	Trick         []PlaySnapshot   `json:"trick"`
	Players       []PlayerSnapshot `json:"players"`
	Teams         []TeamSnapshot   `json:"teams"`
	Rounds        []RoundSnapshot  `json:"rounds,omitempty"`
	Winner        *int             `json:"winner,omitempty"`
}

// Snapshot returns the unfiltered state, hands included. Server-side use
// only; never broadcast verbatim.
func (g *Game) Snapshot() Snapshot {
	return g.snapshotFiltered("")
}

// SnapshotFor returns the state as the given viewer may see it.
func (g *Game) SnapshotFor(viewerID string) Snapshot {
	return g.snapshotFiltered(viewerID)
}

// snapshotFiltered deep-copies under the lock. An empty viewerID means
// no filtering.
func (g *Game) snapshotFiltered(viewerID string) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Phase:         g.phase.String(),
		Round:         g.round,
		MaxRounds:     g.cfg.MaxRounds,
		WinningScore:  g.cfg.WinningScore,
		TrumpSelector: g.trumpSelector,
		CurrentTurn:   g.currentTurn,
		Trick:         make([]PlaySnapshot, 0, g.trick.Size()),
	}
	if g.trumpSuit != card.SuitNone {
		s.TrumpSuit = g.trumpSuit.Name()
	}
	if lead := g.trick.LeadSuit(); lead != card.SuitNone {
		s.LeadSuit = lead.Name()
	}
	for _, p := range g.trick.Plays {
		s.Trick = append(s.Trick, PlaySnapshot{Seat: p.Seat, PlayerID: p.PlayerID, Card: p.Card})
	}

	for seat := 0; seat < SeatCount; seat++ {
		p := g.playersBySeat[seat]
		if p == nil {
			continue
		}
		ps := PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Kind:      p.Kind.String(),
			Seat:      p.Seat,
			Team:      int(p.Team),
			Connected: p.Connected,
			Ready:     p.Ready,
			CardCount: len(p.Hand),
		}
		if viewerID == "" || p.ID == viewerID {
			ps.Hand = append([]card.Card{}, p.Hand...)
		}
		s.Players = append(s.Players, ps)
	}

	for _, t := range g.teams {
		s.Teams = append(s.Teams, TeamSnapshot{
			ID:              int(t.ID),
			TricksThisRound: t.TricksThisRound,
			Score:           t.Score,
		})
	}

	for _, r := range g.rounds {
		s.Rounds = append(s.Rounds, RoundSnapshot{
			Number:     r.Number,
			Trump:      r.Trump.Name(),
			TeamTricks: r.TeamTricks,
			TeamScores: r.TeamScores,
		})
	}

	if g.phase == PhaseGameEnd {
		w := g.winner
		s.Winner = &w
	}
	return s
}
