package crypto

import (
	"crypto/sha256"
	"sort"

	"golang.org/x/crypto/pbkdf2"
)

const (
	sharedKeyIterations = 100000
	sharedKeySalt       = "medrelay-telemed-e2ee-v1"
	sharedKeySize       = 32
)

// DeriveSharedKey produces the 256-bit AES-GCM key both browsers use for
// end-to-end encrypted chat and file payloads. Participant ids are sorted
// before concatenation so both ends compute the identical key regardless
// of argument order, with no key material ever crossing the wire.
//
// This is the client-side contract. The server ships it only as
// documentation and for test vectors; no request path may call it, and no
// handler may ever be handed the output.
func DeriveSharedKey(sessionID, participantA, participantB string) []byte {
	ids := []string{participantA, participantB}
	sort.Strings(ids)
	material := ids[0] + ids[1] + sessionID
	return pbkdf2.Key([]byte(material), []byte(sharedKeySalt), sharedKeyIterations, sharedKeySize, sha256.New)
}
