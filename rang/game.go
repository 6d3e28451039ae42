package rang

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/raoakhan/RangMaster/card"
)

// Game 一局 Rang：4 个玩家、2 支队伍、多轮 13 墩
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	playersBySeat [SeatCount]*Player
	playersByID   map[string]*Player
	teams         [TeamCount]*Team

	phase Phase
	round int // 1-based, 0 before the first deal

	stock card.List // undealt cards

	leadSeat      int // first actor of this round's turn order
	trumpSelector int
	trumpSuit     card.Suit
	currentTurn   int

	trick           Trick
	completedTricks []Trick
	rounds          []RoundRecord

	winner int // 0/1 team, -1 tie; meaningful only in PhaseGameEnd
}

// RoundRecord captures a completed round for the game history.
type RoundRecord struct {
	Number     int
	Trump      card.Suit
	TeamTricks [TeamCount]int
	TeamScores [TeamCount]int // cumulative, after this round
}

// PlayResult reports what a successful PlayCard changed.
type PlayResult struct {
	Play Play

	TrickComplete bool
	TrickWinner   Play
	WinningTeam   TeamID

	RoundComplete bool
	Round         *RoundRecord

	GameOver bool
	Winner   int // 0/1, -1 tie; valid when GameOver
}

func NewGame(cfg Config) (*Game, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(seed)),
		playersByID:   make(map[string]*Player, SeatCount),
		phase:         PhaseWaiting,
		trumpSuit:     card.SuitNone,
		trumpSelector: InvalidSeat,
		currentTurn:   InvalidSeat,
		winner:        -1,
	}
	for i := range g.teams {
		g.teams[i] = &Team{ID: TeamID(i)}
	}
	return g, nil
}

// AddPlayer seats a player at the lowest free seat. The team follows the
// seat parity, keeping the T0,T1,T0,T1 turn order.
func (g *Game) AddPlayer(id, name string, kind PlayerKind) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseWaiting {
		return nil, ErrInvalidPhase("players can only join before the game starts")
	}
	if _, ok := g.playersByID[id]; ok {
		return nil, fmt.Errorf("player %s already seated", id)
	}
	seat := InvalidSeat
	for s := 0; s < SeatCount; s++ {
		if g.playersBySeat[s] == nil {
			seat = s
			break
		}
	}
	if seat == InvalidSeat {
		return nil, ErrSeatsFull
	}

	p := &Player{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Seat:      seat,
		Team:      TeamForSeat(seat),
		Connected: true,
	}
	if kind == KindAI {
		p.Ready = true
	}
	g.playersBySeat[seat] = p
	g.playersByID[id] = p
	return p, nil
}

// RemovePlayer frees a seat. Only legal in the lobby; once the game is
// running, disconnects are tracked via MarkConnected instead.
func (g *Game) RemovePlayer(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseWaiting {
		return ErrInvalidPhase("cannot remove a seated player mid-game")
	}
	p, ok := g.playersByID[id]
	if !ok {
		return ErrPlayerNotFound
	}
	g.playersBySeat[p.Seat] = nil
	delete(g.playersByID, id)
	return nil
}

// SwitchTeam moves a lobby player to a free seat of the other team.
func (g *Game) SwitchTeam(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseWaiting {
		return ErrInvalidPhase("teams are fixed once the game starts")
	}
	p, ok := g.playersByID[id]
	if !ok {
		return ErrPlayerNotFound
	}
	for s := 0; s < SeatCount; s++ {
		if g.playersBySeat[s] == nil && TeamForSeat(s) != p.Team {
			g.playersBySeat[p.Seat] = nil
			p.Seat = s
			p.Team = TeamForSeat(s)
			g.playersBySeat[s] = p
			return nil
		}
	}
	return ErrTeamFull
}

func (g *Game) SetReady(id string, ready bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.playersByID[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Ready = ready
	return nil
}

// MarkConnected updates connection bookkeeping. Seat, hand and score are
// preserved so the player can reconnect by identity.
func (g *Game) MarkConnected(id string, connected bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.playersByID[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Connected = connected
	return nil
}

func (g *Game) Player(id string) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playersByID[id]
}

func (g *Game) PlayerBySeat(seat int) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat < 0 || seat >= SeatCount {
		return nil
	}
	return g.playersBySeat[seat]
}

// Start deals the first round. Requires 4 seated players, 2 per team.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseWaiting {
		return ErrInvalidPhase("game already started")
	}
	count := 0
	var perTeam [TeamCount]int
	for _, p := range g.playersBySeat {
		if p == nil {
			continue
		}
		count++
		perTeam[p.Team]++
	}
	if count != SeatCount {
		return ErrNeedFourPlayers
	}
	if perTeam[0] != 2 || perTeam[1] != 2 {
		return ErrUnbalancedTeams
	}

	g.round = 1
	g.leadSeat = 0
	g.rounds = nil
	for _, t := range g.teams {
		t.Score = 0
	}
	g.beginRound()
	return nil
}

// StartNextRound re-deals after ROUND_END, rotating the deal by one seat.
func (g *Game) StartNextRound() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseRoundEnd {
		return ErrInvalidPhase("no round waiting to start")
	}
	g.round++
	g.leadSeat = (g.round - 1) % SeatCount
	g.beginRound()
	return nil
}

// beginRound shuffles, deals 13 cards to every seat and opens trump
// selection at the round's lead seat. Caller holds the lock.
func (g *Game) beginRound() {
	for _, t := range g.teams {
		t.resetForNewRound()
	}
	for _, p := range g.playersBySeat {
		p.resetForNewRound()
	}
	g.trick.reset()
	g.completedTricks = nil
	g.trumpSuit = card.SuitNone
	g.currentTurn = InvalidSeat

	g.stock = card.Deck()
	g.stock.Shuffle(g.rng)
	for _, p := range g.playersBySeat {
		cards, _ := g.stock.PopCards(CardsPerHand)
		p.Hand = cards
	}

	g.trumpSelector = g.leadSeat
	g.phase = PhaseSelectingTrump
}

// SelectTrump commits the round's trump suit and opens play.
func (g *Game) SelectTrump(playerID string, suit card.Suit) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseSelectingTrump {
		return ErrInvalidPhase("trump selection is not open")
	}
	p, ok := g.playersByID[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.Seat != g.trumpSelector {
		return ErrNotSelector
	}
	if suit > card.Diamond {
		return fmt.Errorf("invalid trump suit %d", suit)
	}

	g.trumpSuit = suit
	g.trick.reset()
	g.currentTurn = g.leadSeat
	g.phase = PhaseInProgress
	return nil
}

// PassTrump hands trump selection to the selector's partner.
func (g *Game) PassTrump(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseSelectingTrump {
		return ErrInvalidPhase("trump selection is not open")
	}
	p, ok := g.playersByID[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.Seat != g.trumpSelector {
		return ErrNotSelector
	}

	g.trumpSelector = PartnerSeat(g.trumpSelector)
	return nil
}

// PlayableCards returns the legal plays for the player right now.
func (g *Game) PlayableCards(playerID string) (card.List, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseInProgress {
		return nil, ErrInvalidPhase("no trick in progress")
	}
	p, ok := g.playersByID[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return PlayableCards(p.Hand, &g.trick, g.trumpSuit), nil
}

// PlayCard validates and applies one play. Legality is judged at the
// moment of play; a completed trick is resolved and cleared atomically.
func (g *Game) PlayCard(playerID string, c card.Card) (*PlayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseGameEnd {
		return nil, ErrGameEnded
	}
	if g.phase != PhaseInProgress {
		return nil, ErrInvalidPhase("no trick in progress")
	}
	p, ok := g.playersByID[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if p.Seat != g.currentTurn {
		return nil, ErrOutOfTurn
	}
	if !p.Hand.Contains(c) {
		return nil, ErrCardNotHeld
	}
	if !CanPlay(p.Hand, c, &g.trick, g.trumpSuit) {
		return nil, ErrMustFollowSuit
	}

	p.Hand.Remove(c)
	play := Play{Seat: p.Seat, PlayerID: p.ID, Card: c}
	g.trick.add(play)

	res := &PlayResult{Play: play, Winner: -1}

	if g.trick.Size() < SeatCount {
		g.currentTurn = NextSeat(g.currentTurn)
		return res, nil
	}

	winner, _ := TrickWinner(&g.trick, g.trumpSuit)
	team := g.teams[TeamForSeat(winner.Seat)]
	team.TricksThisRound++
	g.completedTricks = append(g.completedTricks, g.trick.clone())
	g.trick.reset()
	g.currentTurn = winner.Seat

	res.TrickComplete = true
	res.TrickWinner = winner
	res.WinningTeam = team.ID

	for _, pl := range g.playersBySeat {
		if len(pl.Hand) > 0 {
			return res, nil
		}
	}
	g.finishRound(res)
	return res, nil
}

// finishRound folds the trick tallies into the cumulative scores and
// decides between the next round and the end of the game. Caller holds
// the lock.
func (g *Game) finishRound(res *PlayResult) {
	rec := RoundRecord{Number: g.round, Trump: g.trumpSuit}
	for i, t := range g.teams {
		t.Score += t.TricksThisRound
		rec.TeamTricks[i] = t.TricksThisRound
		rec.TeamScores[i] = t.Score
	}
	g.rounds = append(g.rounds, rec)

	res.RoundComplete = true
	res.Round = &rec

	reached := g.teams[0].Score >= g.cfg.WinningScore || g.teams[1].Score >= g.cfg.WinningScore
	if reached || g.round >= g.cfg.MaxRounds {
		g.phase = PhaseGameEnd
		g.currentTurn = InvalidSeat
		switch {
		case g.teams[0].Score > g.teams[1].Score:
			g.winner = 0
		case g.teams[1].Score > g.teams[0].Score:
			g.winner = 1
		default:
			g.winner = -1
		}
		res.GameOver = true
		res.Winner = g.winner
		return
	}
	g.phase = PhaseRoundEnd
	g.currentTurn = InvalidSeat
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) Round() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

func (g *Game) TrumpSuit() card.Suit {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.trumpSuit
}

// CurrentActor returns the player expected to act now: the trump
// selector during SELECTING_TRUMP, the seat on turn during IN_PROGRESS,
// nil otherwise.
func (g *Game) CurrentActor() *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseSelectingTrump:
		return g.playersBySeat[g.trumpSelector]
	case PhaseInProgress:
		return g.playersBySeat[g.currentTurn]
	}
	return nil
}

// Winner reports the winning team once the game has ended; ok is false
// before GAME_END and winner is -1 on a tie.
func (g *Game) Winner() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseGameEnd {
		return -1, false
	}
	return g.winner, true
}

// ConnectedHumans counts human players with a live connection.
func (g *Game) ConnectedHumans() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, p := range g.playersBySeat {
		if p != nil && p.Kind == KindHuman && p.Connected {
			n++
		}
	}
	return n
}
