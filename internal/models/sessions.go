package models

import "time"

type Session struct {
	ID        string     `json:"id" db:"id"`
	StartTime time.Time  `json:"start_time" db:"starttime"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"endtime"`
	Sensor    int64      `json:"sensor" db:"sensor"`
	IP        string     `json:"ip" db:"ip"`
	TermSize  *string    `json:"term_size,omitempty" db:"termsize"`
	ClientID  *int64     `json:"client_id,omitempty" db:"client"`
}
