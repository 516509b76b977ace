package admin

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ValentinKolb/rKV/lib/store"
)

// infoWriter renders INFO sections in the "# Section\r\nkey:value\r\n" format
type infoWriter struct {
	sb strings.Builder
}

func (w *infoWriter) section(name string) {
	if w.sb.Len() > 0 {
		w.sb.WriteString("\r\n")
	}
	w.sb.WriteString("# ")
	w.sb.WriteString(name)
	w.sb.WriteString("\r\n")
}

func (w *infoWriter) field(key string, value any) {
	fmt.Fprintf(&w.sb, "%s:%v\r\n", key, value)
}

func (a *localAdmin) Info(section string) (string, error) {
	var w infoWriter
	switch section {
	case "":
		a.infoServer(&w)
		a.infoMemory(&w)
		a.infoStats(&w)
		a.infoKeyspace(&w)
	case "server":
		a.infoServer(&w)
	case "memory":
		a.infoMemory(&w)
	case "stats":
		a.infoStats(&w)
	case "keyspace":
		a.infoKeyspace(&w)
	default:
		return "", store.NewError(store.RetCOperationFailed, "unknown info section "+section)
	}
	return w.sb.String(), nil
}

func (a *localAdmin) infoServer(w *infoWriter) {
	uptime := time.Since(a.started)
	w.section("Server")
	w.field("rkv_version", a.conf.Version)
	w.field("os", runtime.GOOS+" "+runtime.GOARCH)
	w.field("go_version", runtime.Version())
	w.field("process_id", os.Getpid())
	w.field("tcp_endpoint", a.conf.Endpoint)
	w.field("uptime_in_seconds", int64(uptime.Seconds()))
	w.field("uptime_in_days", int64(uptime.Hours()/24))
}

func (a *localAdmin) infoMemory(w *infoWriter) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var dataset int
	a.keyspace.Range(func(_ uint64, s store.IStore) bool {
		if info, err := s.GetDBInfo(); err == nil {
			dataset += info.SizeBytes
		}
		return true
	})

	w.section("Memory")
	w.field("used_memory", m.HeapAlloc)
	w.field("used_memory_human", humanBytes(m.HeapAlloc))
	w.field("used_memory_rss", m.Sys)
	w.field("used_memory_dataset", dataset)
	w.field("total_system_memory", m.Sys)
	w.field("gc_cycles", m.NumGC)
}

func (a *localAdmin) infoStats(w *infoWriter) {
	status := "ok"
	if !a.saveOK.Load() {
		status = "err"
	}
	w.section("Persistence")
	w.field("persistence_enabled", boolInt(a.conf.DataDir != ""))
	w.field("rdb_bgsave_in_progress", boolInt(a.saving.Load()))
	w.field("rdb_last_save_time", a.lastSave.Load())
	w.field("rdb_last_bgsave_status", status)
}

func (a *localAdmin) infoKeyspace(w *infoWriter) {
	w.section("Keyspace")
	a.keyspace.Range(func(db uint64, s store.IStore) bool {
		info, err := s.GetDBInfo()
		if err != nil || info.Keys == 0 {
			return true
		}
		w.field(fmt.Sprintf("db%d", db), fmt.Sprintf("keys=%d,expires=%d", info.Keys, info.Expires))
		return true
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// humanBytes formats n with a binary unit suffix ("1.50M")
func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
