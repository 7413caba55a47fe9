package orders

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const (
	CodePrefix = "PH"

	codeTimeLen = 6
	codeRandLen = 4
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode proposes an order code: prefix + base36 unix time + random
// alphanumeric tail. Codes are NOT guaranteed unique; the store's unique
// index is the arbiter and callers must retry on conflict.
func GenerateCode() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().Unix(), 36))
	if len(ts) > codeTimeLen {
		ts = ts[len(ts)-codeTimeLen:]
	}
	for len(ts) < codeTimeLen {
		ts = "0" + ts
	}

	buf := make([]byte, codeRandLen)
	_, _ = rand.Read(buf)
	tail := make([]byte, codeRandLen)
	for i, b := range buf {
		tail[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return CodePrefix + ts + string(tail)
}
