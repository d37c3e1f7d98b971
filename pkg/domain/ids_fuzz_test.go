//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseCandidateID tests that parsing never panics on arbitrary input and
// always returns either a valid ID or an error.
func FuzzParseCandidateID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE candidates;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		candidateID, err := ParseCandidateID(input)
		if err == nil {
			roundTrip, err2 := ParseCandidateID(candidateID.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != candidateID {
				t.Error("round-trip changed ID value")
			}
		}
	})
}
