package analyze

// Kind selects the prompt, the image count and the required output fields.
type Kind string

const (
	KindOverall  Kind = "overall"
	KindSeasonal Kind = "seasonal"
)

type kindSpec struct {
	images   int
	required []string
	// invalid is returned when the model output lacks a required field.
	invalid string
}

var kinds = map[Kind]kindSpec{
	KindOverall: {
		images:   2,
		required: []string{"profile", "combatRecord"},
		invalid:  "Invalid analysis result. Please ensure screenshots show CODM stats clearly.",
	},
	KindSeasonal: {
		images:   4,
		required: []string{"player_info", "seasonal_data"},
		invalid:  "Invalid analysis result. Please ensure screenshots show CODM seasonal stats clearly.",
	},
}
