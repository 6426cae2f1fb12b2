package models

import "time"

// IPAggregate is one rollup row per source IP. FirstSeen and LastSeen are nil
// only when the store returned no session start for the group.
type IPAggregate struct {
	IP           string     `json:"ip" db:"ip"`
	FirstSeen    *time.Time `json:"first_seen" db:"first_seen"`
	LastSeen     *time.Time `json:"last_seen" db:"last_seen"`
	Sessions     int64      `json:"sessions" db:"session_count"`
	AuthAttempts int64      `json:"auth_attempts" db:"auth_attempts"`
	Commands     int64      `json:"commands" db:"command_count"`
	Downloads    int64      `json:"downloads" db:"download_count"`
}

// AuthByMinute counts auth attempts whose session started within one minute.
// Unknown holds attempts with a null outcome; they are never folded into
// Success or Failure.
type AuthByMinute struct {
	Time    *time.Time `json:"time" db:"bucket"`
	Success int64      `json:"success" db:"success"`
	Failure int64      `json:"failure" db:"failure"`
	Unknown int64      `json:"unknown" db:"unknown"`
}
