package security

import "github.com/runreward/runreward/internal/common"

// GenerateCSRFToken returns 32 random hex characters.
func GenerateCSRFToken() (string, error) {
	return common.MakeRandHexString(16)
}
