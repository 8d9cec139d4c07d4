package domain

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReference builds a business reference: PREFIX-<last 10 digits of unix ms>-<6 random chars>.
func NewReference(prefix string, now time.Time) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "PUR"
	}
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > 10 {
		ts = ts[len(ts)-10:]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, ts, randomSuffix(6))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf)
}
