package room

import (
	"log"

	"github.com/raoakhan/RangMaster/apps/server/internal/codec"
	"github.com/raoakhan/RangMaster/rang"
)

// broadcastFiltered sends one message per connected player, built from
// that player's filtered view of the game. Hidden hands never leave the
// server.
func (r *Room) broadcastFiltered(msgType string, build func(state rang.Snapshot) any) {
	for playerID, conns := range r.conns {
		if len(conns) == 0 {
			continue
		}
		data, err := codec.Encode(msgType, build(r.game.SnapshotFor(playerID)))
		if err != nil {
			log.Printf("[Room %s] encode %s failed: %v", r.ID, msgType, err)
			return
		}
		for connID := range conns {
			r.publisher.Publish(connID, data)
		}
	}
}

func (r *Room) broadcastRoomState() {
	r.broadcastFiltered(codec.TypeRoomState, func(state rang.Snapshot) any {
		return codec.RoomStatePayload{
			RoomID:      r.ID,
			EnableAudio: r.cfg.EnableAudio,
			EnableVideo: r.cfg.EnableVideo,
			State:       state,
		}
	})
}

// publishRaw fans a pre-encoded frame out to every connection, optionally
// restricted by a per-player filter.
func (r *Room) publishRaw(data []byte, include func(playerID string) bool) {
	for playerID, conns := range r.conns {
		if include != nil && !include(playerID) {
			continue
		}
		for connID := range conns {
			r.publisher.Publish(connID, data)
		}
	}
}

func (r *Room) sendToConn(connID string, data []byte) {
	r.publisher.Publish(connID, data)
}

func (r *Room) sendRoomJoined(playerID, connID string) {
	data, err := codec.Encode(codec.TypeRoomJoined, codec.RoomJoinedPayload{
		RoomID:      r.ID,
		Code:        r.Code,
		PlayerID:    playerID,
		EnableAudio: r.cfg.EnableAudio,
		EnableVideo: r.cfg.EnableVideo,
		State:       r.game.SnapshotFor(playerID),
	})
	if err != nil {
		log.Printf("[Room %s] encode room_joined failed: %v", r.ID, err)
		return
	}
	r.sendToConn(connID, data)
}

func (r *Room) sendChatBacklog(connID string) {
	for _, msg := range r.chat {
		r.sendToConn(connID, codec.MustEncode(codec.TypeChatMessage, msg))
	}
}
