package scene

import "fmt"

// LoadingMessage is shown while a cycle is running.
const LoadingMessage = "Loading weather..."

// Status is the banner and refresh affordance drawn over the globe.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	// ShowRefresh is false once the source proved unusable.
	ShowRefresh    bool `json:"showRefresh"`
	RefreshEnabled bool `json:"refreshEnabled"`
	Stations       int  `json:"stations"`
}

// NewStatus builds the banner from the polling state and the marker count.
// Only an empty cycle produces an error banner; missing cities stay silent.
func NewStatus(loading bool, errorMessage *string, usable bool, stations int) Status {
	st := Status{
		Loading:        loading,
		ShowRefresh:    usable,
		RefreshEnabled: usable && !loading,
		Stations:       stations,
	}
	if errorMessage != nil {
		st.Error = *errorMessage
	}

	switch {
	case loading:
		st.Message = LoadingMessage
	case st.Error != "":
		st.Message = st.Error
	case stations > 0:
		st.Message = fmt.Sprintf("%d weather stations loaded", stations)
	}
	return st
}
