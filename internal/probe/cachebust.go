package probe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// CacheBust appends a unique query value so no two probes, within a batch or
// across batches, can be served from a shared cache.
func CacheBust(url string) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	nonce := fmt.Sprintf("%x-%08x", time.Now().UnixNano(), binary.BigEndian.Uint32(b[:]))

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "nocache=" + nonce
}
