package options

import (
	"strings"

	"github.com/ValentinKolb/rKV/lib/admin"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// The admin commands accept a closed set of sub-keywords. Any other token is
// reported as UnsupportedCommand echoing the entire invocation.

// unsupported returns the UnsupportedCommand error of req
func unsupported(req *codec.Request) error {
	return common.UnsupportedCommand(req.String())
}

// ParseBGSave parses BGSAVE [SCHEDULE] and reports whether SCHEDULE was given
func ParseBGSave(req *codec.Request) (bool, error) {
	if req.Len() == 1 {
		return false, nil
	}
	if is(req.Arg(1), tokSCHEDULE) {
		return true, nil
	}
	return false, unsupported(req)
}

// ParseShutdown parses SHUTDOWN [NOSAVE|SAVE]
func ParseShutdown(req *codec.Request) (admin.ShutdownMode, error) {
	if req.Len() == 1 {
		return admin.ShutdownDefault, nil
	}
	switch arg := req.Arg(1); {
	case is(arg, tokSAVE):
		return admin.ShutdownSave, nil
	case is(arg, tokNOSAVE):
		return admin.ShutdownNoSave, nil
	default:
		return admin.ShutdownDefault, unsupported(req)
	}
}

// ParseFlushAll parses FLUSHALL [ASYNC|SYNC] and reports whether ASYNC was given
func ParseFlushAll(req *codec.Request) (bool, error) {
	if req.Len() == 1 {
		return false, nil
	}
	switch arg := req.Arg(1); {
	case is(arg, tokASYNC):
		return true, nil
	case is(arg, tokSYNC):
		return false, nil
	default:
		return false, unsupported(req)
	}
}

// InfoSections lists the sections INFO accepts
var InfoSections = []string{"server", "memory", "keyspace", "stats"}

// ParseInfo parses INFO [section] and returns the lower case section ("" for all)
func ParseInfo(req *codec.Request) (string, error) {
	if req.Len() == 1 {
		return "", nil
	}
	section := strings.ToLower(string(req.Arg(1)))
	if section == "all" || section == "everything" || section == "default" {
		return "", nil
	}
	for _, s := range InfoSections {
		if s == section {
			return section, nil
		}
	}
	return "", unsupported(req)
}

// ParseCluster parses CLUSTER SLOTS, the only supported CLUSTER sub-command
func ParseCluster(req *codec.Request) error {
	if is(req.Arg(1), tokSLOTS) {
		return nil
	}
	return unsupported(req)
}
