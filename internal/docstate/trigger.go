package docstate

// Kind names an automatic generation feature.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindInsights Kind = "insights"
)

// Pending applies the level-triggered rule and returns the kinds that
// should fire now: a document is present, the toggle is on, the result is
// still empty and no request for that kind is in flight. Re-enabling a
// toggle after a result exists returns nothing; clearing the result (a
// new upload) re-arms the kind.
func Pending(s State) []Kind {
	if s.Document == nil {
		return nil
	}
	var kinds []Kind
	if s.GenerateSummary && s.Summary == "" && !s.SummaryInFlight {
		kinds = append(kinds, KindSummary)
	}
	if s.GenerateInsights && len(s.Insights) == 0 && !s.InsightsInFlight {
		kinds = append(kinds, KindInsights)
	}
	return kinds
}
