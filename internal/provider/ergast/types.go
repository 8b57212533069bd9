package ergast

// Category selects one of the provider's per-season result feeds.
type Category string

const (
	CategoryRace       Category = "results"
	CategorySprint     Category = "sprint"
	CategoryQualifying Category = "qualifying"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRace, CategorySprint, CategoryQualifying:
		return true
	}
	return false
}

// Page is one decoded response. Total counts result rows across the whole
// season, not races, so a race can straddle two pages.
type Page struct {
	Total  int
	Limit  int
	Offset int
	Races  []Race
}

type envelope struct {
	MRData struct {
		Limit     string `json:"limit"`
		Offset    string `json:"offset"`
		Total     string `json:"total"`
		RaceTable struct {
			Season string `json:"season"`
			Races  []Race `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type Race struct {
	Season            string   `json:"season"`
	Round             string   `json:"round"`
	RaceName          string   `json:"raceName"`
	Date              string   `json:"date"`
	Results           []Result `json:"Results,omitempty"`
	SprintResults     []Result `json:"SprintResults,omitempty"`
	QualifyingResults []Result `json:"QualifyingResults,omitempty"`
}

// Entries returns the rows belonging to category c.
func (r Race) Entries(c Category) []Result {
	switch c {
	case CategorySprint:
		return r.SprintResults
	case CategoryQualifying:
		return r.QualifyingResults
	default:
		return r.Results
	}
}

type Result struct {
	Number     string      `json:"number"`
	Position   string      `json:"position"`
	Points     string      `json:"points"`
	Driver     Driver      `json:"Driver"`
	Time       *Timing     `json:"Time,omitempty"`
	FastestLap *FastestLap `json:"FastestLap,omitempty"`
	Q1         string      `json:"Q1,omitempty"`
	Q2         string      `json:"Q2,omitempty"`
	Q3         string      `json:"Q3,omitempty"`
}

type Driver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
}

type Timing struct {
	Millis string `json:"millis,omitempty"`
	Time   string `json:"time"`
}

type FastestLap struct {
	Rank string  `json:"rank"`
	Lap  string  `json:"lap"`
	Time *Timing `json:"Time,omitempty"`
}
