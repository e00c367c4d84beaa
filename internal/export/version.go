package export

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ariel-frischer/vistoria/internal/textnorm"
)

const (
	filePrefix    = "Relatorio"
	unknownClient = "Cliente"
	unknownDate   = "00000000"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339, "2006-01-02T15:04"}

// FilePrefix is the artifact name prefix of an inspection:
// Relatorio_<client>_<YYYYMMDD>.
func FilePrefix(clientName, executionDate string) string {
	client := textnorm.FileSafe(clientName)
	if client == "" {
		client = unknownClient
	}
	return filePrefix + "_" + client + "_" + compactDate(executionDate)
}

// compactDate reformats an execution date as YYYYMMDD. Unparseable dates keep their digits.
func compactDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102")
		}
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return unknownDate
	}
	return digits
}

// NextVersion returns one more than the highest _v<N> marker among names sharing prefix,
// or 1 when there is none.
func NextVersion(prefix string, names []string) int {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_v(\d+)(\.|$)`)
	highest := 0
	for _, name := range names {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// FileBase is the versioned artifact name without extension.
func FileBase(prefix string, version int) string {
	return prefix + "_v" + strconv.Itoa(version)
}
