package domain

const (
	RequesterIDCtxKey      = "kd-requesterId"
	RequesterAccountCtxKey = "kd-requesterAccount"
)

// EventChannel is the redis pub/sub channel graph-change events go through.
const EventChannel = "kindred:events"
