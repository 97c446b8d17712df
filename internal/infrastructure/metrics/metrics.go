package metrics

import (
	"expvar"
)

// History metrics.
var (
	actionsRecorded = expvar.NewMap("taskflow_actions_recorded_total")
	undoTotal       = new(expvar.Int)
	redoTotal       = new(expvar.Int)
	historyEvicted  = new(expvar.Int)
	historyDepth    = new(expvar.Int)
)

// Archival metrics.
var (
	tasksArchived = expvar.NewMap("taskflow_tasks_archived_total")
	archiveErrors = new(expvar.Int)
	sweepsTotal   = new(expvar.Int)
)

func init() {
	expvar.Publish("taskflow_undo_total", undoTotal)
	expvar.Publish("taskflow_redo_total", redoTotal)
	expvar.Publish("taskflow_history_evicted_total", historyEvicted)
	expvar.Publish("taskflow_history_depth", historyDepth)
	expvar.Publish("taskflow_archive_errors_total", archiveErrors)
	expvar.Publish("taskflow_sweeps_total", sweepsTotal)
}

// History helpers
func ActionRecorded(kind string) { actionsRecorded.Add(kind, 1) }
func IncUndo()                   { undoTotal.Add(1) }
func IncRedo()                   { redoTotal.Add(1) }
func IncHistoryEvicted()         { historyEvicted.Add(1) }
func SetHistoryDepth(n int)      { historyDepth.Set(int64(n)) }

// Archival helpers
func TasksArchived(kind string, n int) { tasksArchived.Add(kind, int64(n)) }
func AddArchiveErrors(n int)           { archiveErrors.Add(int64(n)) }
func IncSweeps()                       { sweepsTotal.Add(1) }
