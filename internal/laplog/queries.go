package laplog

const createLapsTable = `
	CREATE TABLE IF NOT EXISTS laps (
		run_id     VARCHAR NOT NULL,
		label      INTEGER NOT NULL,
		elapsed_ns BIGINT  NOT NULL
	)
`

const deleteRunLaps = `DELETE FROM laps WHERE run_id = ?`

const insertLap = `INSERT INTO laps (run_id, label, elapsed_ns) VALUES (?, ?, ?)`

// A split is the lap total minus the previous lap's total; lap 1's split is
// its total.
const splitsCTE = `
	WITH splits AS (
		SELECT
			label,
			elapsed_ns - COALESCE(LAG(elapsed_ns) OVER (ORDER BY label), 0) AS split_ns
		FROM laps
		WHERE run_id = ?
	)
`

const summaryQuery = splitsCTE + `
	SELECT
		COUNT(*),
		COALESCE(arg_min(label, split_ns), 0),
		COALESCE(MIN(split_ns), 0),
		COALESCE(arg_max(label, split_ns), 0),
		COALESCE(MAX(split_ns), 0),
		COALESCE(CAST(AVG(split_ns) AS BIGINT), 0)
	FROM splits
`

const splitsQuery = splitsCTE + `
	SELECT label, split_ns
	FROM splits
	ORDER BY label DESC
`
