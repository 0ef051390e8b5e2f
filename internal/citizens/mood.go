package citizens

// Mood is the coarse happiness band used to colour citizens.
type Mood string

const (
	Distressed Mood = "distressed"
	Uneasy     Mood = "uneasy"
	Content    Mood = "content"
)

// MoodOf maps happiness onto its band: below 30 distressed, below 60 uneasy.
func MoodOf(happiness float64) Mood {
	switch {
	case happiness < 30:
		return Distressed
	case happiness < 60:
		return Uneasy
	default:
		return Content
	}
}
