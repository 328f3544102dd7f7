package live

// InputSearchState holds the keyword and whether the result panel is visible.
type InputSearchState struct {
	sec     *section
	keyword string
	visible bool
}

func newInputSearchState(sec *section) *InputSearchState {
	return &InputSearchState{sec: sec}
}

func (s *InputSearchState) Keyword() string {
	s.sec.mu.Lock()
	defer s.sec.mu.Unlock()
	return s.keyword
}

func (s *InputSearchState) Visible() bool {
	s.sec.mu.Lock()
	defer s.sec.mu.Unlock()
	return s.visible
}

// OnInput applies a new keyword. A non-empty keyword opens the panel and emits
// an input trigger; clearing the keyword closes the panel without searching.
func (s *InputSearchState) OnInput(value string) {
	s.sec.run(func() {
		if value == s.keyword {
			return
		}
		s.keyword = value
		s.sec.touch()

		if value == "" {
			s.setHidden()
			return
		}
		s.visible = true
		s.sec.emit(SourceInput)
	})
}

// OnSubmit opens the panel and emits an input trigger regardless of the keyword.
func (s *InputSearchState) OnSubmit() {
	s.sec.run(func() {
		s.visible = true
		s.sec.touch()
		s.sec.emit(SourceInput)
	})
}

func (s *InputSearchState) OnHide() {
	s.sec.run(func() {
		s.sec.touch()
		s.setHidden()
	})
}

func (s *InputSearchState) setHidden() {
	s.visible = false
	s.sec.hide()
}
