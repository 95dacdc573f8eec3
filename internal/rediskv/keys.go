package rediskv

import "strconv"

// Key layout constants, per spec.md §6's "Redis key layout".
const roomListTimeIndex = "room:list:time:index"

// RoomKey is the hash key for a room's metadata.
func RoomKey(roomID uint32) string { return "room:" + strconv.FormatUint(uint64(roomID), 10) }

// RoomUsersKey is the set key for a room's member ids.
func RoomUsersKey(roomID uint32) string { return RoomKey(roomID) + ":users" }

// UserKey is the hash key for a user's profile fields.
func UserKey(userID int64) string { return "user:" + strconv.FormatInt(userID, 10) }

// RoomListTimeIndex is the sorted-set key (score = create-time) listing
// rooms for discovery.
func RoomListTimeIndex() string { return roomListTimeIndex }
