package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// channelLayoutSpace namespaces the name based UUIDs of channel layouts
var channelLayoutSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://openexr.com/channel-layout"))

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashUUID returns a stable name based UUID for the json form of value,
// or "" when value cannot be marshalled
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return uuid.NewMD5(channelLayoutSpace, raw).String()
}

// RunID identifies one invocation in logs
func RunID() string {
	return uuid.NewString()
}
