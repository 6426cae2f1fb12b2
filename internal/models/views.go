package models

import "time"

// -------------------- PRESENTATION ROWS --------------------
// Built per request by the service layer and handed to the renderers.

type IPAggregateView struct {
	IP           string     `json:"ip"`
	FirstSeen    *time.Time `json:"first_seen"`
	LastSeen     *time.Time `json:"last_seen"`
	FirstSeenAgo string     `json:"first_seen_ago"`
	LastSeenAgo  string     `json:"last_seen_ago"`
	Sessions     int64      `json:"sessions"`
	AuthAttempts int64      `json:"auth_attempts"`
	Commands     int64      `json:"commands"`
	Downloads    int64      `json:"downloads"`
}

type AuthTrendPoint struct {
	Time    *time.Time `json:"time"`
	Success int64      `json:"success"`
	Failure int64      `json:"failure"`
	Unknown int64      `json:"unknown"`
}

type AuthView struct {
	ID        int64     `json:"id"`
	Username  *string   `json:"username"`
	Password  *string   `json:"password"`
	Outcome   Outcome   `json:"outcome"`
	Client    *string   `json:"client"`
	Timestamp time.Time `json:"timestamp"`
	When      string    `json:"when"`
}

type SessionView struct {
	ID        string     `json:"id"`
	IP        string     `json:"ip"`
	Sensor    int64      `json:"sensor"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Started   string     `json:"started"`
	Duration  *string    `json:"duration"`
	TermSize  *string    `json:"term_size"`
}

// Overview is the index page payload: rollup plus trend.
type Overview struct {
	IPs   []IPAggregateView `json:"ips"`
	Trend []AuthTrendPoint  `json:"trend"`
}

// IPDetail is the drill-down payload for a single source IP.
type IPDetail struct {
	IP       string        `json:"ip"`
	Attempts []AuthView    `json:"attempts"`
	Sessions []SessionView `json:"sessions"`
}
