package redis

import "strings"

// Key layout:
//
//	marq:user:<id>        user record (JSON)
//	marq:email:<email>    email -> user id index
//	marq:bm:<id>          bookmark record (JSON)
//	marq:bm:user:<userID> ZSET of bookmark ids scored by created_at
//	marq:feed:<userID>    pub/sub channel for the user's change feed
const keyPrefix = "marq:"

// UserKey returns the key for a user record.
func UserKey(id string) string {
	return keyPrefix + "user:" + id
}

// EmailKey returns the email index key. Emails are case-folded so the
// same account is found regardless of input casing.
func EmailKey(email string) string {
	return keyPrefix + "email:" + strings.ToLower(strings.TrimSpace(email))
}

// BookmarkKey returns the key for a bookmark record.
func BookmarkKey(id string) string {
	return keyPrefix + "bm:" + id
}

// UserBookmarksKey returns the per-user bookmark index key.
func UserBookmarksKey(userID string) string {
	return keyPrefix + "bm:user:" + userID
}

// FeedChannel returns the change-feed channel for a user partition.
func FeedChannel(userID string) string {
	return keyPrefix + "feed:" + userID
}
