package stats

import (
	"strings"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// PairKeys and TripleKeys fix the enumeration order of outcome sequences.
// The most frequent sequence is the first key in this order with the highest count.
var (
	PairKeys   = []string{"TP-TP", "TP-SL", "SL-TP", "SL-SL"}
	TripleKeys = []string{
		"TP-TP-TP", "TP-TP-SL", "TP-SL-TP", "TP-SL-SL",
		"SL-TP-TP", "SL-TP-SL", "SL-SL-TP", "SL-SL-SL",
	}
)

// SequenceCount is the number of times an outcome sequence occurred
type SequenceCount struct {
	Sequence string `json:"sequence"`
	Count    int    `json:"count"`
}

// SequenceAnalysis holds transition statistics over consecutive outcomes.
// Probabilities are percentages.
type SequenceAnalysis struct {
	Pairs          []SequenceCount `json:"pairs"`
	Triples        []SequenceCount `json:"triples"`
	WinAfterWin    float64         `json:"win_after_win"`
	WinAfterLoss   float64         `json:"win_after_loss"`
	LossAfterWin   float64         `json:"loss_after_win"`
	LossAfterLoss  float64         `json:"loss_after_loss"`
	MostCommonPair SequenceCount   `json:"most_common_pair"`
	MostCommonTrio SequenceCount   `json:"most_common_triple"`
}

// Count returns the number of occurrences of a sequence such as "TP-SL"
func (a SequenceAnalysis) Count(seq string) int {
	for _, list := range [][]SequenceCount{a.Pairs, a.Triples} {
		for _, sc := range list {
			if sc.Sequence == seq {
				return sc.Count
			}
		}
	}
	return 0
}

// AnalyzeSequences counts length-2 and length-3 outcome sequences over the
// chronologically sorted valid trades.
func AnalyzeSequences(trades []model.Trade) SequenceAnalysis {
	return AnalyzeOutcomes(newLedger(trades, Params{}).outcomes())
}

// AnalyzeOutcomes counts sequences over an already ordered outcome list.
// Windows containing anything other than TP or SL are not counted.
func AnalyzeOutcomes(outcomes []model.Outcome) SequenceAnalysis {
	counts := make(map[string]int, len(PairKeys)+len(TripleKeys))
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(outcomes); i++ {
			if key, ok := sequenceKey(outcomes[i : i+n]); ok {
				counts[key]++
			}
		}
	}

	a := SequenceAnalysis{
		Pairs:   ordered(PairKeys, counts),
		Triples: ordered(TripleKeys, counts),
	}
	a.MostCommonPair = mostCommon(a.Pairs)
	a.MostCommonTrio = mostCommon(a.Triples)

	afterWin := counts["TP-TP"] + counts["TP-SL"]
	afterLoss := counts["SL-TP"] + counts["SL-SL"]
	a.WinAfterWin = percent(counts["TP-TP"], afterWin)
	a.LossAfterWin = percent(counts["TP-SL"], afterWin)
	a.WinAfterLoss = percent(counts["SL-TP"], afterLoss)
	a.LossAfterLoss = percent(counts["SL-SL"], afterLoss)
	return a
}

func sequenceKey(window []model.Outcome) (string, bool) {
	parts := make([]string, len(window))
	for i, o := range window {
		if !o.Known() {
			return "", false
		}
		parts[i] = string(o)
	}
	return strings.Join(parts, "-"), true
}

func ordered(keys []string, counts map[string]int) []SequenceCount {
	out := make([]SequenceCount, len(keys))
	for i, k := range keys {
		out[i] = SequenceCount{Sequence: k, Count: counts[k]}
	}
	return out
}

// mostCommon returns the first sequence with the highest count. When nothing
// was observed that is the first enumerated sequence with a count of zero.
func mostCommon(list []SequenceCount) SequenceCount {
	if len(list) == 0 {
		return SequenceCount{}
	}
	best := list[0]
	for _, sc := range list[1:] {
		if sc.Count > best.Count {
			best = sc
		}
	}
	return best
}
