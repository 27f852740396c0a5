package model

type Airport struct {
	Id       int64  `json:"id,omitempty"`
	City     string `json:"city"`
	IataCode string `json:"iataCode"`
	Country  string `json:"country"`
	Name     string `json:"name"`
}

func (a Airport) Label() string {
	if a.City == "" {
		return a.IataCode
	}
	return a.City + " (" + a.IataCode + ")"
}
