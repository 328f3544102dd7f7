package live

// Field names a filter field accepted by FilterState.SetField.
type Field string

const FieldChecked Field = "checked"

type FilterValue struct {
	Checked bool
}

// FilterState holds the boolean filter of the search panel.
type FilterState struct {
	sec   *section
	value FilterValue
}

func newFilterState(sec *section) *FilterState {
	return &FilterState{sec: sec}
}

func (f *FilterState) Value() FilterValue {
	f.sec.mu.Lock()
	defer f.sec.mu.Unlock()
	return f.value
}

// SetField stores value under key and always emits a filter trigger, even when
// the value did not change. Unknown keys leave the value untouched.
func (f *FilterState) SetField(key Field, value bool) {
	f.sec.run(func() {
		switch key {
		case FieldChecked:
			f.value.Checked = value
		}
		f.sec.touch()
		f.sec.emit(SourceFilter)
	})
}
