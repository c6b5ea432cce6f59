package domain

// CardView is the transient display state of one card.
// Each action button is revealed at most once for the life of the card.
type CardView struct {
	EditShown   bool
	RemoveShown bool
}

// Card pairs a task with its view state.
type Card struct {
	Task Task
	View CardView
}

// NewCard builds a card for task with both action buttons hidden.
func NewCard(task Task) Card {
	return Card{Task: task}
}

// RevealEdit shows the edit button and reports whether it was hidden before.
func (v *CardView) RevealEdit() bool {
	if v.EditShown {
		return false
	}
	v.EditShown = true
	return true
}

// RevealRemove shows the remove button and reports whether it was hidden before.
func (v *CardView) RevealRemove() bool {
	if v.RemoveShown {
		return false
	}
	v.RemoveShown = true
	return true
}
