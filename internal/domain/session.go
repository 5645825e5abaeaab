package domain

// Direction controls which side of a card is shown first during a
// learning session.
type Direction string

const (
	FrontToBack Direction = "front-to-back"
	BackToFront Direction = "back-to-front"
	Mixed       Direction = "mixed"
)

// Mode selects how the learner answers: flipping the card and grading
// themselves, or typing the answer and having it checked.
type Mode string

const (
	ModeReveal Mode = "reveal"
	ModeWrite  Mode = "write"
)
