package broker

// command is the message type consumed by Broker.Run. Each variant carries
// its own reply channel when the caller waits for a result; reply channels
// are buffered so the Broker never blocks on a caller that gave up.
type command interface {
	isCommand()
}

type connectCmd struct {
	handle Handle
	reply  chan SessionID
}

type disconnectCmd struct {
	id SessionID
}

type sendCmd struct {
	id   SessionID
	room string
	text string
}

type joinCmd struct {
	id    SessionID
	room  string
	reply chan error
}

type listRoomsCmd struct {
	reply chan []string
}

type statsCmd struct {
	reply chan Stats
}

type snapshotCmd struct {
	reply chan map[string][]SessionID
}

func (connectCmd) isCommand()    {}
func (disconnectCmd) isCommand() {}
func (sendCmd) isCommand()       {}
func (joinCmd) isCommand()       {}
func (listRoomsCmd) isCommand()  {}
func (statsCmd) isCommand()      {}
func (snapshotCmd) isCommand()   {}
