package signal

import (
	"errors"
	"unicode/utf8"

	"github.com/dkeye/dialnet/internal/app/orch"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type joinPayload struct {
	Username   string `json:"username" validate:"required,min=2,max=20"`
	Room       string `json:"room" validate:"required,max=64"`
	Department string `json:"department,omitempty" validate:"max=32"`
	Gender     string `json:"gender,omitempty" validate:"max=16"`
	Password   string `json:"password,omitempty" validate:"max=128"`
}

type sendPayload struct {
	Message string `json:"message" validate:"required"`
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	origin core.Origin,
	conn *WsSignalConn,
	data []byte,
) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendEvent(conn, core.JoinError("invalid join request"))
		return
	}
	if err := ctl.validate.Struct(p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join payload rejected")
		ctl.sendEvent(conn, core.JoinError("invalid join request"))
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join")
	err := ctl.Orch.Execute(orch.JoinCommand{
		SID:      sid,
		Origin:   origin,
		Username: p.Username,
		Room:     domain.RoomID(p.Room),
		Password: p.Password,
		Profile:  domain.Profile{Department: p.Department, Gender: p.Gender},
	})
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join refused")
		ctl.sendEvent(conn, core.JoinError(ctl.joinErrorMessage(err)))
	}
}

func (ctl *SignalWSController) joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		if ctl.opts.UnifyJoinErrors {
			return "unable to join room"
		}
		if errors.Is(err, domain.ErrRoomNotFound) {
			return "room not found"
		}
		return "invalid room password"
	default:
		return "invalid join request"
	}
}

func (ctl *SignalWSController) handleSend(sid core.SessionID, data []byte) {
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil || ctl.validate.Struct(p) != nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad send payload")
		return
	}
	if utf8.RuneCountInString(p.Message) > ctl.opts.MaxMessageLen {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Int("len", utf8.RuneCountInString(p.Message)).Msg("message too long, dropped")
		return
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited, dropped")
		return
	}
	_ = ctl.Orch.Execute(orch.SendCommand{SID: sid, Text: p.Message})
}

// handleDisconnect ends the session and closes the socket; readPump finishes the cleanup.
func (ctl *SignalWSController) handleDisconnect(sid core.SessionID, conn *WsSignalConn) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("disconnect requested")
	_ = ctl.Orch.Execute(orch.DisconnectCommand{SID: sid})
	conn.Close()
}
