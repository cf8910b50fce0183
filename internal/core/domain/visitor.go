package domain

// VisitResult is the outcome of counting a page view.
type VisitResult struct {
	Count int64
	// FirstVisit tells the caller to hand out the visited marker cookie.
	FirstVisit bool
}
