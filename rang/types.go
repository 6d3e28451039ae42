package rang

const (
	// SeatCount 每局固定 4 个座位，两队交替入座
	SeatCount    = 4
	TeamCount    = 2
	CardsPerHand = 13

	InvalidSeat = -1
)

// Phase 游戏阶段
type Phase byte

const (
	PhaseWaiting        Phase = 0
	PhaseSelectingTrump Phase = 1
	PhaseInProgress     Phase = 2
	PhaseRoundEnd       Phase = 3
	PhaseGameEnd        Phase = 4
)

var PhaseDictionary = map[Phase]string{
	PhaseWaiting:        "waiting",
	PhaseSelectingTrump: "selecting_trump",
	PhaseInProgress:     "in_progress",
	PhaseRoundEnd:       "round_end",
	PhaseGameEnd:        "game_end",
}

func (p Phase) String() string {
	if s, ok := PhaseDictionary[p]; ok {
		return s
	}
	return "unknown"
}

// PlayerKind 玩家类型
type PlayerKind byte

const (
	KindHuman PlayerKind = 0
	KindAI    PlayerKind = 1
)

var PlayerKindDictionary = map[PlayerKind]string{
	KindHuman: "human",
	KindAI:    "ai",
}

func (k PlayerKind) String() string {
	if s, ok := PlayerKindDictionary[k]; ok {
		return s
	}
	return "unknown"
}

// TeamID 队伍编号 (0 或 1)
type TeamID int

// TeamForSeat returns the team seated at the given turn-order seat.
// Seating alternates T0,T1,T0,T1.
func TeamForSeat(seat int) TeamID {
	return TeamID(seat % TeamCount)
}

// PartnerSeat returns the seat of the player sitting across.
func PartnerSeat(seat int) int {
	return (seat + 2) % SeatCount
}

// NextSeat returns the seat acting after the given one.
func NextSeat(seat int) int {
	return (seat + 1) % SeatCount
}
