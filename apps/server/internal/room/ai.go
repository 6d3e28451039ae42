package room

import (
	"fmt"
	"log"
	"time"

	"github.com/raoakhan/RangMaster/card"
	"github.com/raoakhan/RangMaster/rang"
	"github.com/raoakhan/RangMaster/rang/ai"
)

// addAIPlayerLocked seats the next free AI profile.
func (r *Room) addAIPlayerLocked() (*rang.Player, error) {
	used := make(map[string]bool, len(r.brains))
	for id := range r.brains {
		used[id] = true
	}
	profile := r.profiles.NextFree(used)
	if profile == nil {
		return nil, fmt.Errorf("no free AI profiles")
	}

	p, err := r.game.AddPlayer(profile.ID, profile.Name, rang.KindAI)
	if err != nil {
		return nil, err
	}
	r.brains[profile.ID] = ai.NewRuleBrain(profile, r.rng.Int63())
	r.persistCreatePlayer(p)
	r.auditLocked("%s (AI) seated at seat %d", profile.Name, p.Seat)
	log.Printf("[Room %s] AI player %s seated at seat %d", r.ID, profile.Name, p.Seat)
	return p, nil
}

// scheduleAILocked checks whether an AI is on turn and, if so, spawns a
// goroutine that thinks for a human-like delay and then injects the
// decision back into the actor queue. The decision itself is computed at
// execution time against the then-current state.
func (r *Room) scheduleAILocked() {
	actor := r.game.CurrentActor()
	if actor == nil || !actor.IsAI() {
		return
	}
	if _, ok := r.brains[actor.ID]; !ok {
		return
	}

	token := r.turnSeq
	playerID := actor.ID
	delay := aiThinkFloor + time.Duration(r.rng.Int63n(int64(aiThinkJitter)))

	go func() {
		time.Sleep(delay)
		err := r.Submit(Event{Type: EventAIAction, PlayerID: playerID, Token: token})
		if err != nil && err != ErrRoomClosed {
			log.Printf("[Room %s] AI action failed for %s: %v", r.ID, playerID, err)
		}
	}()
}

// handleAIAction executes a deferred AI decision. The token and the
// current actor are re-validated first; anything that raced with a state
// change is dropped.
func (r *Room) handleAIAction(playerID string, token uint64) error {
	if token != r.turnSeq {
		log.Printf("[Room %s] Dropping stale AI action for %s", r.ID, playerID)
		return nil
	}
	actor := r.game.CurrentActor()
	if actor == nil || actor.ID != playerID {
		log.Printf("[Room %s] Dropping AI action for %s: no longer on turn", r.ID, playerID)
		return nil
	}
	brain := r.brains[playerID]
	if brain == nil {
		return nil
	}

	switch r.game.Phase() {
	case rang.PhaseSelectingTrump:
		hand := append(card.List{}, actor.Hand...)
		suit, pass := brain.SelectTrump(hand)

		// A selector who already received a pass must commit a suit,
		// otherwise the choice would bounce between partners forever.
		snap := r.game.Snapshot()
		leadSeat := (snap.Round - 1) % rang.SeatCount
		if pass && snap.TrumpSelector == leadSeat {
			return r.handlePassTrump(playerID)
		}
		return r.handleSelectTrump(playerID, suit)

	case rang.PhaseInProgress:
		legal, err := r.game.PlayableCards(playerID)
		if err != nil {
			return err
		}
		view := r.buildAIView(actor, legal)
		return r.applyPlay(playerID, brain.ChooseCard(view))
	}
	return nil
}

func (r *Room) buildAIView(actor *rang.Player, legal card.List) ai.GameView {
	snap := r.game.Snapshot()
	view := ai.GameView{
		Phase:     r.game.Phase(),
		Seat:      actor.Seat,
		Hand:      append(card.List{}, actor.Hand...),
		Legal:     legal,
		TrumpSuit: r.game.TrumpSuit(),
		LeadSuit:  card.SuitNone,
	}
	for _, play := range snap.Trick {
		view.Trick = append(view.Trick, rang.Play{
			Seat:     play.Seat,
			PlayerID: play.PlayerID,
			Card:     play.Card,
		})
	}
	if len(view.Trick) > 0 {
		view.LeadSuit = view.Trick[0].Card.Suit()
	}
	return view
}
