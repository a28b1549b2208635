package mysql

// Request status values. Only open requests may be replaced by a new submission.
const (
	statusOpen     = "open"
	statusLocked   = "locked"
	statusReplaced = "replaced"
)

const activeRequestForUpdateSQL = `
SELECT id, status
FROM trip_requests
WHERE employee_id = ? AND status IN ('open', 'locked')
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE
`

const activeRequestSQL = `
SELECT id, status
FROM trip_requests
WHERE employee_id = ? AND status IN ('open', 'locked')
ORDER BY created_at DESC
LIMIT 1
`

const markReplacedSQL = `
UPDATE trip_requests SET status = ? WHERE id = ?
`

const insertRequestSQL = `
INSERT INTO trip_requests (id, employee_id, companion_ids, status)
VALUES (?, ?, ?, ?)
`

const insertHotelsPrefix = "INSERT INTO trip_request_hotels\n  (request_id, position, city, hotel_id, hotel_name, arrival_date, rooms_data)\nVALUES "

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// The last request is the most recent one that was not superseded.
const lastRequestSQL = `
SELECT id, companion_ids
FROM trip_requests
WHERE employee_id = ? AND status <> 'replaced'
ORDER BY created_at DESC
LIMIT 1
`

const requestHotelsSQL = `
SELECT city, hotel_id, hotel_name, arrival_date, rooms_data
FROM trip_request_hotels
WHERE request_id = ?
ORDER BY position
`
