// Package board extracts cards from CorePoint HTML board exports and turns
// them into aging and pipeline-value reports.
package board

import "time"

// Card is one work item lifted out of a board export. Price is nil when the
// card text carries no quoted price.
type Card struct {
	Column   string    `json:"column"`
	Text     string    `json:"text"`
	Received time.Time `json:"received"`
	Age      int       `json:"age_days"`
	Price    *int      `json:"price,omitempty"`
}
