package billing

// Plan is a fixed credit bundle. Amount is in major currency units.
type Plan struct {
	ID          string `json:"id"`
	Description string `json:"desc"`
	Credits     int64  `json:"credits"`
	Amount      int64  `json:"price"`
}

var plans = []Plan{
	{ID: "Basic", Description: "Best for personal use.", Credits: 100, Amount: 10},
	{ID: "Advanced", Description: "Best for business use.", Credits: 500, Amount: 50},
	{ID: "Business", Description: "Best for enterprise use.", Credits: 5000, Amount: 250},
}

// Plans returns the catalog in display order
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// FindPlan looks a plan up by its exact id
func FindPlan(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
