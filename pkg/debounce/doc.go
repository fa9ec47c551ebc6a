// Package debounce provides a value that settles only after its input has
// stopped changing for a delay.
//
// Typical use is a search box: every keystroke calls Update, and the query
// layer observes the settled value through Current or an OnSettle callback.
//
//	q := debounce.New("")
//	q.OnSettle(func(s string) { runSearch(s) })
//
//	q.Update("s", 300*time.Millisecond)
//	q.Update("sh", 300*time.Millisecond)
//	q.Update("sho", 300*time.Millisecond) // only "sho" ever settles
//
//	defer q.Dispose()
//
// # Timer ownership
//
// A Value owns a single pending-settlement slot. Update overwrites the slot
// and bumps a generation counter; a timer commits only if its generation
// still owns the slot, so a timer that fires while being stopped can never
// overwrite a newer input. Settlement always goes through the Clock, even
// for a zero delay.
//
// # Lifecycle
//
// Dispose cancels the pending settlement. Updates after Dispose are ignored
// and Current keeps returning the last settled value.
package debounce
