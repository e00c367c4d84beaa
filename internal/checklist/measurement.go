package checklist

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ariel-frischer/vistoria/internal/textnorm"
)

// Messages reported by ValidateMeasurement.
const (
	MsgNoParameters = "Sem parâmetros de validação"
	MsgNonNumeric   = "Valor esperado não numérico; validação qualitativa"
	MsgWithinRange  = "Valor dentro da faixa aceitável"
)

// ZeroTargetDeviation is the deviation reported for a nonzero reading against an expected
// value of zero, where the relative deviation is undefined.
const ZeroTargetDeviation = 100.0

// ValidateMeasurement checks a measured value against the item's expected value and
// tolerance percent. Items without both parameters, or with a non-numeric expectation,
// are trivially valid. Deviation is |measured-expected|/|expected| in percent and is
// reported even when the value is valid.
func ValidateMeasurement(item Item, measured float64) MeasurementResult {
	if strings.TrimSpace(item.ExpectedValue) == "" || item.TolerancePercent == nil {
		return MeasurementResult{IsValid: true, Deviation: 0, Message: MsgNoParameters}
	}

	expected, ok := textnorm.ParseNumber(item.ExpectedValue)
	if !ok {
		return MeasurementResult{IsValid: true, Deviation: 0, Message: MsgNonNumeric}
	}

	tolerance := math.Abs(expected * *item.TolerancePercent / 100)
	lo, hi := expected-tolerance, expected+tolerance

	deviation := 0.0
	if expected != 0 {
		deviation = math.Abs((measured-expected)/expected) * 100
	} else if measured != 0 {
		deviation = ZeroTargetDeviation
	}

	if measured >= lo && measured <= hi {
		return MeasurementResult{IsValid: true, Deviation: deviation, Message: MsgWithinRange}
	}

	return MeasurementResult{
		IsValid:   false,
		Deviation: deviation,
		Message: strings.TrimSpace(fmt.Sprintf("Valor fora da faixa aceitável: %s - %s %s",
			formatNumber(lo), formatNumber(hi), item.Unit)),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
