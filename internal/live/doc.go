// Package live coordinates a search panel that is driven by three independent
// user actions: typing a keyword, toggling a filter, and asking for a refresh.
//
// The package owns four pieces of state that live and die together:
//
//   - FilterState holds the boolean filter and fires a trigger on every change.
//   - InputSearchState holds the keyword and the panel visibility flag.
//   - ResultState holds the loading flag, the last failure, and the results.
//   - Coordinator merges the triggers into a single stream of fetches.
//
// A trigger is dropped while the panel is hidden. A trigger that passes clears
// the results and raises the loading flag before the call returns, then waits for
// its source's debounce window (refresh and filter 50ms, input 200ms by default).
// When a window elapses the coordinator starts a new fetch generation. Any older
// fetch still running is abandoned: its context is cancelled and its outcome is
// ignored when it arrives. Visibility is checked again before the fetch starts and
// again when the outcome arrives, so a late response never repopulates a closed
// panel.
//
// All mutation happens inside one critical section per coordinator, which plays
// the part of a single event loop. Timers and fetch goroutines re-enter it when
// they complete. Listeners registered with Coordinator.Subscribe run after the
// section is released and may read any state freely.
//
// Example:
//
//	c := live.New[string](live.FetcherFunc[string](fetch))
//	teardown, err := c.Start()
//	if err != nil {
//		return err
//	}
//	defer teardown()
//
//	c.Input().OnInput("golang")
//	c.Filter().SetField(live.FieldChecked, true)
//	c.Refresh()
package live
