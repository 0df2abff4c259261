package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// MaxRequestAge rejects replayed requests older than this.
const MaxRequestAge = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing Slack signature headers")
	ErrStaleRequest     = errors.New("Slack request timestamp too old")
	ErrBadSignature     = errors.New("Slack signature mismatch")
)

// Sign computes the v0 signature for a request body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the X-Slack-Signature of a request against secret.
func Verify(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}
	sec, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrMissingSignature, timestamp)
	}
	if math.Abs(now.Sub(time.Unix(sec, 0)).Seconds()) > MaxRequestAge.Seconds() {
		return ErrStaleRequest
	}
	if !hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
