package config

const (
	DefaultTimeZone = "Europe/Berlin"

	// QSUpsertBatchSize bounds one quantity-survey upsert request; QS
	// exports commonly carry 200k+ rows.
	QSUpsertBatchSize = 10000

	// UtilizationEpsilon is the threshold below which a utilization move
	// does not count as a change.
	UtilizationEpsilon = 0.01

	// MaxValidationErrorsShown caps the row errors surfaced in a failure
	// message.
	MaxValidationErrorsShown = 10

	// Stale-job reaper: jobs left in processing longer than the cutoff
	// are failed by the cron sweep.
	DefaultReaperSchedule = "*/10 * * * *"
	StaleJobCutoffMinutes = 60

	MaxUploadBytes = 50 << 20
)
