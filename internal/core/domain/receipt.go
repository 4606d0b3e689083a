package domain

import "time"

// Receipt records what was installed under a prefix and whether the install
// has been verified by the acceptance suite.
type Receipt struct {
	Prefix      string    `json:"prefix"`
	RunID       string    `json:"run_id,omitzero"`
	Platform    Platform  `json:"platform,omitzero"`
	EnvDigest   string    `json:"env_digest,omitzero"`
	InstalledAt time.Time `json:"installed_at,omitzero"`
	VerifiedAt  time.Time `json:"verified_at,omitzero"`
	CasesPassed int       `json:"cases_passed,omitzero"`
	CasesTotal  int       `json:"cases_total,omitzero"`
}

// Verified reports whether the last acceptance run passed every case.
func (r Receipt) Verified() bool {
	return !r.VerifiedAt.IsZero() && r.CasesTotal > 0 && r.CasesPassed == r.CasesTotal
}
