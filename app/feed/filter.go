package feed

// Eligible reports whether an item should enter the pipeline. Pinned posts
// and anything that is not a video are skipped.
func Eligible(item Item) bool {
	return !item.Stickied && item.IsVideo
}
