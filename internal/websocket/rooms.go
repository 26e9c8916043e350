package websocket

import (
	"strconv"
	"strings"
)

const (
	groupRoomPrefix = "group:"
	userRoomPrefix  = "user:"
)

// GroupRoom returns the room key for a group, or "" for ids that cannot
// name a group.
func GroupRoom(groupID int64) string {
	if groupID <= 0 {
		return ""
	}
	return groupRoomPrefix + strconv.FormatInt(groupID, 10)
}

// UserRoom returns the per-user room used for direct delivery.
func UserRoom(userID string) string {
	if userID == "" {
		return ""
	}
	return userRoomPrefix + userID
}

// ParseGroupRoom extracts the group id from a group room key.
func ParseGroupRoom(room string) (int64, bool) {
	rest, ok := strings.CutPrefix(room, groupRoomPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
