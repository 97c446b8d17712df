package metrics

import (
	"expvar"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

type meta struct {
	typ, help string
	label     string // non-empty for expvar.Map metrics
}

var metas = map[string]meta{
	"taskflow_actions_recorded_total": {typ: "counter", help: "Undoable actions recorded", label: "kind"},
	"taskflow_undo_total":             {typ: "counter", help: "Undo operations applied"},
	"taskflow_redo_total":             {typ: "counter", help: "Redo operations applied"},
	"taskflow_history_evicted_total":  {typ: "counter", help: "Actions dropped from a full undo stack"},
	"taskflow_history_depth":          {typ: "gauge", help: "Actions currently on the undo stack"},
	"taskflow_tasks_archived_total":   {typ: "counter", help: "Tasks moved to the archive", label: "kind"},
	"taskflow_archive_errors_total":   {typ: "counter", help: "Tasks that failed to archive"},
	"taskflow_sweeps_total":           {typ: "counter", help: "Archival sweeps run"},
}

// Handler serves WritePrometheus output.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		WritePrometheus(w)
	})
}

// WritePrometheus renders every known taskflow metric, plus any other
// integer expvar as an untyped gauge, sorted by name.
func WritePrometheus(w io.Writer) {
	var names []string
	expvar.Do(func(kv expvar.KeyValue) { names = append(names, kv.Key) })
	sort.Strings(names)

	for _, name := range names {
		v := expvar.Get(name)
		m, known := metas[name]
		if !known {
			if iv, ok := v.(*expvar.Int); ok {
				_, _ = fmt.Fprintf(w, "# TYPE %s gauge\n%s %s\n", name, name, iv.String())
			}
			continue
		}

		_, _ = fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, m.help, name, m.typ)
		mp, isMap := v.(*expvar.Map)
		if m.label == "" || !isMap {
			_, _ = fmt.Fprintf(w, "%s %s\n", name, v.String())
			continue
		}
		var sub []expvar.KeyValue
		mp.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
		sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
		for _, kv := range sub {
			_, _ = fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
		}
	}
}

func escapeLabel(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}
