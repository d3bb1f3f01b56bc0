package blast

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jjtimmons/cox1/internal/errs"
)

var (
	// the BLAST URL API reports job state in a comment block:
	//
	//	<!--QBlastInfoBegin
	//	    RID = 954517067-8610-1647
	//	    RTOE = 207
	//	QBlastInfoEnd
	//	-->
	qblastInfo = regexp.MustCompile(`(?s)QBlastInfoBegin(.*?)QBlastInfoEnd`)

	infoField = regexp.MustCompile(`(?m)^\s*(\w+)\s*=\s*(\S+)\s*$`)
)

// parseQBlastInfo returns the key/value pairs of every QBlastInfo block in body.
func parseQBlastInfo(body []byte) map[string]string {
	fields := make(map[string]string)
	for _, block := range qblastInfo.FindAllSubmatch(body, -1) {
		for _, kv := range infoField.FindAllSubmatch(block[1], -1) {
			fields[string(kv[1])] = string(kv[2])
		}
	}
	return fields
}

// parsePut reads the request id and estimated time of execution from a Put response.
func parsePut(body []byte) (rid string, rtoe time.Duration, err error) {
	info := parseQBlastInfo(body)

	rid = info["RID"]
	if rid == "" {
		return "", 0, &errs.ServiceError{Service: service, Msg: "no RID in submission response"}
	}

	if s, ok := info["RTOE"]; ok {
		secs, err := strconv.Atoi(s)
		if err != nil {
			return "", 0, &errs.ParseError{Err: fmt.Errorf("blast RTOE %q: %w", s, err)}
		}
		rtoe = time.Duration(secs) * time.Second
	}
	return rid, rtoe, nil
}

// parseSearchInfo returns the Status of a search (WAITING, READY, FAILED,
// UNKNOWN) and whether it found hits.
func parseSearchInfo(body []byte) (status string, hits bool) {
	info := parseQBlastInfo(body)
	return strings.ToUpper(info["Status"]), strings.EqualFold(info["ThereAreHits"], "yes")
}
