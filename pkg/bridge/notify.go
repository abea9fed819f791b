package bridge

// Notifier receives a callback on every bridge status change. The API
// layer uses it to push updates to subscribers; a nil notifier is valid.
type Notifier interface {
	BridgeUpdated(record *BridgeRecord)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(record *BridgeRecord)

func (f NotifierFunc) BridgeUpdated(record *BridgeRecord) {
	f(record)
}
