package signal

import "github.com/dkeye/dialnet/internal/core"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendEvent(conn, core.Pong())
}
