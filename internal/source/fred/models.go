package fred

// ObservationsResponse is the body of series/observations with file_type=json.
type ObservationsResponse struct {
	RealtimeStart string        `json:"realtime_start"`
	RealtimeEnd   string        `json:"realtime_end"`
	Count         int           `json:"count"`
	Observations  []Observation `json:"observations"`
}

type Observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// missingValue marks an observation without data.
const missingValue = "."
