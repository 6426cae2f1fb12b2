package eventstore

import "fmt"

// Per-session pre-aggregation keeps the three left joins from multiplying
// each other's rows.
const ipAggregatesSQL = `
SELECT s.ip,
       MIN(s.starttime) AS first_seen,
       MAX(s.starttime) AS last_seen,
       COUNT(*) AS session_count,
       COALESCE(SUM(a.n), 0) AS auth_attempts,
       COALESCE(SUM(i.n), 0) AS command_count,
       COALESCE(SUM(d.n), 0) AS download_count
FROM sessions s
LEFT JOIN (SELECT session, COUNT(*) AS n FROM auth GROUP BY session) a ON a.session = s.id
LEFT JOIN (SELECT session, COUNT(*) AS n FROM input GROUP BY session) i ON i.session = s.id
LEFT JOIN (SELECT session, COUNT(*) AS n FROM downloads GROUP BY session) d ON d.session = s.id
GROUP BY s.ip
ORDER BY last_seen DESC, s.ip ASC
LIMIT ?`

// Buckets follow the owning session's start, not the attempt's own timestamp.
const authByMinuteSQL = `
SELECT %s AS bucket,
       SUM(CASE WHEN a.success IS NOT NULL AND a.success <> 0 THEN 1 ELSE 0 END) AS success_count,
       SUM(CASE WHEN a.success = 0 THEN 1 ELSE 0 END) AS failure_count,
       SUM(CASE WHEN a.success IS NULL THEN 1 ELSE 0 END) AS unknown_count
FROM auth a
JOIN sessions s ON s.id = a.session
WHERE %s > ?
GROUP BY bucket
ORDER BY bucket ASC`

const authByIPSQL = `
SELECT a.id, a.session, a.success, a.username, a.password, c.version, a.timestamp
FROM auth a
JOIN sessions s ON s.id = a.session
LEFT JOIN clients c ON c.id = s.client
WHERE s.ip = ?
ORDER BY a.timestamp ASC, a.id ASC`

const sessionColumns = `id, starttime, endtime, sensor, ip, termsize, client`

const recentSessionsSQL = `
SELECT ` + sessionColumns + `
FROM sessions
ORDER BY starttime DESC, id ASC
LIMIT ?`

const sessionsByIPSQL = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE ip = ?
ORDER BY starttime DESC, id ASC`

type queries struct {
	ipAggregates   string
	authByMinute   string
	authByIP       string
	recentSessions string
	sessionsByIP   string
}

func buildQueries(d Dialect) queries {
	return queries{
		ipAggregates:   d.Rebind(ipAggregatesSQL),
		authByMinute:   d.Rebind(fmt.Sprintf(authByMinuteSQL, d.minuteBucket("s.starttime"), d.timeColumn("s.starttime"))),
		authByIP:       d.Rebind(authByIPSQL),
		recentSessions: d.Rebind(recentSessionsSQL),
		sessionsByIP:   d.Rebind(sessionsByIPSQL),
	}
}
